package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/model"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.api.ListBlogs(r.Context())
	if err != nil {
		// landing page still renders without posts
		h.log.Warn("home: list blogs", "error", err)
		posts = nil
	}
	sortPosts(posts)
	if len(posts) > 3 {
		posts = posts[:3]
	}
	h.render(w, r, http.StatusOK, "home.html", page{"Posts": posts})
}

func sortPosts(posts []model.BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}

func (h *Handler) blogList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.api.ListBlogs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if tag != "" {
		posts = filterByTag(posts, tag)
	}
	sortPosts(posts)
	h.render(w, r, http.StatusOK, "blog_list.html", page{"Posts": posts, "Tag": tag})
}

func filterByTag(posts []model.BlogPost, tag string) []model.BlogPost {
	var out []model.BlogPost
	for _, p := range posts {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (h *Handler) blogShow(w http.ResponseWriter, r *http.Request) {
	p, err := h.api.GetBlog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s := session(r)
	canEdit := s != nil && s.Claims.UserID == p.AuthorID
	canDelete := canEdit || (s != nil && s.Claims.Role == model.RoleAdmin)
	h.render(w, r, http.StatusOK, "blog_show.html", page{"Post": p, "CanEdit": canEdit, "CanDelete": canDelete})
}

func (h *Handler) myBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.api.ListBlogs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	uid := session(r).Claims.UserID
	var mine []model.BlogPost
	for _, p := range posts {
		if p.AuthorID == uid {
			mine = append(mine, p)
		}
	}
	sortPosts(mine)
	h.render(w, r, http.StatusOK, "blog_mine.html", page{"Posts": mine})
}

func blogInput(r *http.Request) backend.BlogInput {
	in := backend.BlogInput{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Summary: strings.TrimSpace(r.FormValue("summary")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			in.Tags = append(in.Tags, t)
		}
	}
	return in
}

func validateBlog(in backend.BlogInput) string {
	switch {
	case in.Title == "":
		return "Title is required."
	case in.Content == "":
		return "Content is required."
	}
	return ""
}

func (h *Handler) newBlogPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "blog_form.html", page{"Action": "/therapist/blogs/new"})
}

func (h *Handler) createBlog(w http.ResponseWriter, r *http.Request) {
	in := blogInput(r)
	form := page{"Action": "/therapist/blogs/new", "Input": in, "Tags": strings.Join(in.Tags, ", ")}
	if msg := validateBlog(in); msg != "" {
		form["Error"] = msg
		h.render(w, r, http.StatusUnprocessableEntity, "blog_form.html", form)
		return
	}
	p, err := h.api.CreateBlog(r.Context(), token(r), in)
	if err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "blog_form.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/blogs/"+p.ID, "Post published.")
}

// ownPost loads a post and checks the signed-in therapist wrote it.
func (h *Handler) ownPost(w http.ResponseWriter, r *http.Request) (*model.BlogPost, bool) {
	p, err := h.api.GetBlog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if p.AuthorID != session(r).Claims.UserID {
		// hide other people's posts behind a 404
		h.notFound(w, r)
		return nil, false
	}
	return p, true
}

func (h *Handler) editBlogPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownPost(w, r)
	if !ok {
		return
	}
	in := backend.BlogInput{Title: p.Title, Summary: p.Summary, Content: p.Content, Tags: p.Tags}
	h.render(w, r, http.StatusOK, "blog_form.html", page{
		"Action": "/therapist/blogs/" + p.ID + "/edit",
		"Input":  in,
		"Tags":   strings.Join(p.Tags, ", "),
		"Edit":   true,
	})
}

func (h *Handler) updateBlog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownPost(w, r)
	if !ok {
		return
	}
	in := blogInput(r)
	form := page{"Action": "/therapist/blogs/" + p.ID + "/edit", "Input": in, "Tags": strings.Join(in.Tags, ", "), "Edit": true}
	if msg := validateBlog(in); msg != "" {
		form["Error"] = msg
		h.render(w, r, http.StatusUnprocessableEntity, "blog_form.html", form)
		return
	}
	if _, err := h.api.UpdateBlog(r.Context(), token(r), p.ID, in); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "blog_form.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/blogs/"+p.ID, "Post updated.")
}

func (h *Handler) deleteBlog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownPost(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteBlog(r.Context(), token(r), p.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/therapist/blogs", "Post deleted.")
}

// adminDeleteBlog skips the ownership check.
func (h *Handler) adminDeleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteBlog(r.Context(), token(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/blogs", "Post removed.")
}
