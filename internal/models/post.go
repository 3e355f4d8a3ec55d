package models

import "time"

// DefaultAuthor подставляется, если автор поста не указан.
const DefaultAuthor = "TechBlog Admin"

// Categories - допустимые категории постов.
var Categories = []string{
	"AI & Machine Learning",
	"Web Development",
	"Mobile Development",
	"DevOps",
	"Cybersecurity",
	"Blockchain",
	"Data Science",
	"Cloud Computing",
	"IoT",
	"General Tech",
	"Announcement",
}

// ValidCategory проверяет принадлежность категории к списку Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}

	return false
}

// Post - запись блога.
// Content хранится в Markdown; ContentHTML вычисляется при отдаче и не хранится.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml,omitempty"`
	Excerpt     string    `json:"excerpt"`
	Category    string    `json:"category"`
	Thumbnail   string    `json:"thumbnail"`
	Author      string    `json:"author"`
	Slug        string    `json:"slug"`
	Published   bool      `json:"published"`
	Views       int64     `json:"views"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PostUpdate - частичное обновление поста; nil означает «не менять».
type PostUpdate struct {
	Title     *string   `json:"title,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Excerpt   *string   `json:"excerpt,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	Author    *string   `json:"author,omitempty"`
	Published *bool     `json:"published,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// Empty сообщает, что в обновлении нет ни одного поля.
func (u PostUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Excerpt == nil && u.Category == nil &&
		u.Thumbnail == nil && u.Author == nil && u.Published == nil && u.Tags == nil
}

// PostFilter - параметры выборки ленты.
type PostFilter struct {
	Category  string
	Published *bool
	Page      int
	Limit     int
}

// Pagination - метаданные страницы.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// PostPage - результат постраничной выдачи.
type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}
