package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugAttempts ограничивает перебор суффиксов -N.
const maxSlugAttempts = 1000

var errSlugExhausted = errors.New("no free slug")

// Slugify превращает заголовок в slug: нижний регистр, латиница без
// диакритики, цифры и одиночные дефисы. "&" читается как "and".
// Пустой результат заменяется на "post".
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	folded = strings.ReplaceAll(strings.ToLower(folded), "&", " and ")

	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "post"
	}

	return out
}

// uniqueSlug подбирает свободный slug: base, base-1, base-2, ...
func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	const op = "service.posts.uniqueSlug"

	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := s.storage.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}

	return "", fmt.Errorf("%s: %w", op, errSlugExhausted)
}
