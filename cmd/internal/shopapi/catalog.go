package shopapi

import (
	"crypto/rand"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"stickershop/cmd/internal/catalog"
)

const maxImageBytes = 8 << 20

func (h *Handler) handleStickerList(w http.ResponseWriter, r *http.Request) {
	includeInactive := false
	if v := r.URL.Query().Get("include_inactive"); v != "" {
		includeInactive, _ = strconv.ParseBool(v)
	}

	stickers, err := h.catalog.List(r.Context(), includeInactive)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]stickerResponse, 0, len(stickers))
	for _, s := range stickers {
		out = append(out, toStickerResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStickerCreate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "multipart form expected")
		return
	}

	name := r.FormValue("name")
	priceRaw := r.FormValue("price_minor")
	price, err := strconv.ParseInt(strings.TrimSpace(priceRaw), 10, 64)
	if err != nil || price <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_price", "price must be a positive integer")
		return
	}

	in := catalog.CreateInput{
		Name:       name,
		PriceMinor: price,
		Currency:   r.FormValue("currency"),
		Active:     true,
	}
	if v := r.FormValue("description"); v != "" {
		in.Description = &v
	}
	if v := r.FormValue("active"); v != "" {
		in.Active, _ = strconv.ParseBool(v)
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer func() { _ = file.Close() }()
		imageURL, err := h.saveImage(file, header)
		if err != nil {
			h.log.Error("sticker.image.save.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "image_save_failed", "could not store image")
			return
		}
		in.ImageURL = &imageURL
	}

	st, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStickerResponse(st))
}

func (h *Handler) handleStickerUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req stickerUpdateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.Name == nil && req.Description == nil && req.PriceMinor == nil && req.Currency == nil && req.Active == nil {
		writeError(w, http.StatusBadRequest, "empty_update", "no update values provided")
		return
	}
	if req.PriceMinor != nil && *req.PriceMinor <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_price", "price must be a positive integer")
		return
	}

	st, err := h.catalog.Update(r.Context(), r.PathValue("id"), catalog.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Currency:    req.Currency,
		Active:      req.Active,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStickerResponse(st))
}

func (h *Handler) handleStickerDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveImage stores an uploaded image under the static dir with a ULID name
// and returns its public path.
func (h *Handler) saveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	dir := filepath.Join(h.cfg.StaticDir, "stickers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".png"
	}
	name := ulid.MustNew(ulid.Now(), rand.Reader).String() + strings.ToLower(ext)

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, io.LimitReader(file, maxImageBytes)); err != nil {
		return "", err
	}
	return "/static/stickers/" + name, nil
}
