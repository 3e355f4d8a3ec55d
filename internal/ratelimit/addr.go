package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownAddr - адрес, если определить клиента не удалось.
const UnknownAddr = "unknown"

// ClientAddr определяет адрес клиента для ключа лимитера.
// По умолчанию берётся адрес TCP-соединения, затем первый X-Forwarded-For.
// С trustForwarded порядок обратный: за доверенным прокси X-Forwarded-For точнее.
// Заголовок подделывается клиентом, если перед сервисом нет прокси, который его перезаписывает.
func ClientAddr(r *http.Request, trustForwarded bool) string {
	remote := remoteHost(r.RemoteAddr)
	fwd := forwardedFor(r.Header.Get("X-Forwarded-For"))

	first, second := remote, fwd
	if trustForwarded {
		first, second = fwd, remote
	}

	switch {
	case first != "":
		return first
	case second != "":
		return second
	default:
		return UnknownAddr
	}
}

func remoteHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

func forwardedFor(h string) string {
	if h == "" {
		return ""
	}

	first, _, _ := strings.Cut(h, ",")

	return strings.TrimSpace(first)
}
