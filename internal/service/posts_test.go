package service

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/techblog/internal/models"
	"github.com/pribylovaa/techblog/internal/storage"
	"github.com/stretchr/testify/require"
)

func validPost() models.Post {
	return models.Post{
		Title:     "Hello World",
		Content:   "# Hello\n\nBody",
		Excerpt:   "Short intro",
		Thumbnail: "https://img.example.com/1.png",
		Category:  "DevOps",
		Tags:      []string{" go ", "", "k8s"},
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  Go 1.24: what's new?  ", "go-124-whats-new"},
		{"AI & Machine Learning", "ai-and-machine-learning"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"multi   space--dash__under", "multi-space-dash-under"},
		{"!!!", "post"},
		{"Привет", "post"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Slugify(c.in), c.in)
	}
}

func TestCreatePost_UniqueSlugAndDefaults(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	gomock.InOrder(
		f.st.EXPECT().SlugExists(gomock.Any(), "hello-world").Return(true, nil),
		f.st.EXPECT().SlugExists(gomock.Any(), "hello-world-1").Return(true, nil),
		f.st.EXPECT().SlugExists(gomock.Any(), "hello-world-2").Return(false, nil),
	)
	f.st.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.Post) (*models.Post, error) {
			require.Equal(t, "hello-world-2", p.Slug)
			require.Equal(t, models.DefaultAuthor, p.Author)
			require.Equal(t, []string{"go", "k8s"}, p.Tags)
			require.Zero(t, p.Views)
			require.Equal(t, fixedNow, p.CreatedAt)
			p.ID = "p1"
			return &p, nil
		})

	in := validPost()
	in.Views = 99
	in.ID = "client-id"

	out, err := f.svc.CreatePost(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "p1", out.ID)
}

func TestCreatePost_RetriesOnSlugRace(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().SlugExists(gomock.Any(), "hello-world").Return(false, nil)
	f.st.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(nil, storage.ErrAlreadyExists)
	f.st.EXPECT().SlugExists(gomock.Any(), "hello-world").Return(true, nil)
	f.st.EXPECT().SlugExists(gomock.Any(), "hello-world-1").Return(false, nil)
	f.st.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.Post) (*models.Post, error) {
			return &p, nil
		})

	out, err := f.svc.CreatePost(context.Background(), validPost())
	require.NoError(t, err)
	require.Equal(t, "hello-world-1", out.Slug)
}

func TestCreatePost_Validation(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	p := validPost()
	p.Category = "Cooking"
	_, err := f.svc.CreatePost(context.Background(), p)
	requireValidation(t, err, "Please provide a valid category")

	p = validPost()
	p.Title = strings.Repeat("x", 201)
	_, err = f.svc.CreatePost(context.Background(), p)
	requireValidation(t, err, "Title cannot be more than 200 characters")

	p = validPost()
	p.Thumbnail = " "
	_, err = f.svc.CreatePost(context.Background(), p)
	requireValidation(t, err, "Please provide a thumbnail URL")
}

func TestUpdatePost_OK(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	current := validPost()
	current.ID = "p1"
	current.Slug = "hello-world"

	title := "  New title  "
	published := true
	f.st.EXPECT().PostByID(gomock.Any(), "p1").Return(&current, nil)
	f.st.EXPECT().UpdatePost(gomock.Any(), "p1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, upd models.PostUpdate) (*models.Post, error) {
			require.Equal(t, "New title", *upd.Title)
			require.True(t, *upd.Published)
			require.Nil(t, upd.Content)
			out := current
			out.Title = *upd.Title
			out.Published = true
			return &out, nil
		})

	out, err := f.svc.UpdatePost(context.Background(), "p1", models.PostUpdate{Title: &title, Published: &published})
	require.NoError(t, err)
	require.Equal(t, "New title", out.Title)
	require.Equal(t, "hello-world", out.Slug)
}

func TestUpdatePost_InvalidResult_NotStored(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	current := validPost()
	empty := ""
	f.st.EXPECT().PostByID(gomock.Any(), "p1").Return(&current, nil)

	_, err := f.svc.UpdatePost(context.Background(), "p1", models.PostUpdate{Content: &empty})
	requireValidation(t, err, "Please provide content for this post")
}

func TestUpdatePost_NotFound(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().PostByID(gomock.Any(), "nope").Return(nil, storage.ErrNotFound)

	title := "x"
	_, err := f.svc.UpdatePost(context.Background(), "nope", models.PostUpdate{Title: &title})
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().DeletePost(gomock.Any(), "p1").Return(nil)
	f.st.EXPECT().DeletePost(gomock.Any(), "p2").Return(storage.ErrNotFound)

	require.NoError(t, f.svc.DeletePost(context.Background(), "p1"))
	require.ErrorIs(t, f.svc.DeletePost(context.Background(), "p2"), ErrPostNotFound)
}

func TestListPosts_AnonymousSeesPublishedOnly(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	draft := false
	f.st.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, flt models.PostFilter) ([]models.Post, int64, error) {
			require.NotNil(t, flt.Published)
			require.True(t, *flt.Published)
			require.Equal(t, 1, flt.Page)
			require.Equal(t, 10, flt.Limit)
			return nil, 21, nil
		})

	page, err := f.svc.ListPosts(context.Background(), models.PostFilter{Published: &draft}, false)
	require.NoError(t, err)
	require.NotNil(t, page.Posts)
	require.Equal(t, models.Pagination{Page: 1, Limit: 10, Total: 21, Pages: 3}, page.Pagination)
}

func TestListPosts_AdminFilters(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().ListPosts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, flt models.PostFilter) ([]models.Post, int64, error) {
			require.Nil(t, flt.Published)
			require.Equal(t, 100, flt.Limit)
			require.Equal(t, "DevOps", flt.Category)
			return []models.Post{{ID: "p1"}}, 1, nil
		})

	page, err := f.svc.ListPosts(context.Background(), models.PostFilter{Category: "DevOps", Page: 1, Limit: 500}, true)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, 1, page.Pagination.Pages)
}

func TestGetPost_RendersAndHidesDrafts(t *testing.T) {
	t.Parallel()
	f := newSvc(t)

	f.st.EXPECT().ViewPost(gomock.Any(), "p1", true).Return(&models.Post{
		ID:      "p1",
		Content: "# Title\n\n<script>alert(1)</script>",
		Views:   5,
	}, nil)
	f.st.EXPECT().ViewPost(gomock.Any(), "draft", true).Return(nil, storage.ErrNotFound)
	f.st.EXPECT().ViewPost(gomock.Any(), "draft", false).Return(&models.Post{ID: "draft"}, nil)

	p, err := f.svc.GetPost(context.Background(), "p1", false)
	require.NoError(t, err)
	require.Contains(t, p.ContentHTML, "<h1")
	require.NotContains(t, p.ContentHTML, "<script>")

	_, err = f.svc.GetPost(context.Background(), "draft", false)
	require.ErrorIs(t, err, ErrPostNotFound)

	p, err = f.svc.GetPost(context.Background(), "draft", true)
	require.NoError(t, err)
	require.Equal(t, "draft", p.ID)
}
