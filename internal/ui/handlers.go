package ui

import (
	"net/http"
	"strings"
)

// maxPromptLength bounds the textarea input.
const maxPromptLength = 2000

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, askPage(askPageData{
		State: h.Catalog.State(),
	}, csrfInput(r)))
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Could not read the submitted form."))
		return
	}
	prompt := strings.TrimSpace(r.Form.Get("prompt"))
	if prompt == "" {
		renderHTML(w, http.StatusBadRequest, askPage(askPageData{
			State: h.Catalog.State(),
			Error: "Please enter a question.",
		}, csrfInput(r)))
		return
	}
	if len(prompt) > maxPromptLength {
		renderHTML(w, http.StatusBadRequest, askPage(askPageData{
			State:  h.Catalog.State(),
			Prompt: prompt,
			Error:  "Question is too long.",
		}, csrfInput(r)))
		return
	}

	resp := h.Query.Submit(r.Context(), prompt)
	h.logger.Debug("ui question answered", "message", resp.Message)
	renderHTML(w, http.StatusOK, askPage(askPageData{
		State:    h.Catalog.State(),
		Prompt:   prompt,
		Response: resp,
	}, csrfInput(r)))
}
