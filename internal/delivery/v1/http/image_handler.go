package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
)

type ImageHandler struct {
	visualUC       usecase.VisualUC
	maxUploadBytes int64
	logger         logger.Logger
}

func NewImageHandler(visualUC usecase.VisualUC, maxUploadBytes int64, logger logger.Logger) *ImageHandler {
	return &ImageHandler{visualUC: visualUC, maxUploadBytes: maxUploadBytes, logger: logger}
}

// similarImages
//
//	@Summary		Поиск похожих изображений
//	@Description	Возвращает K эталонных изображений, ближайших к загруженному по косинусному сходству
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Изображение запроса (jpeg, png, webp)"
//	@Param			k		formData	int		false	"Сколько результатов вернуть"
//	@Success		200		{object}	SimilarResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		503		{object}	ErrorResponse	"Индекс недоступен"
//	@Router			/images/similar [post]
func (h *ImageHandler) similarImages(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	// запас на остальные поля формы
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d similar: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		WriteError(w, e.ErrNoImages)
		return
	}

	data, _, err := readFile(files[0], h.maxUploadBytes)
	if err != nil {
		h.logger.Warnf("%d similar: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	img, err := imageproc.Decode(data)
	if err != nil {
		WriteError(w, err)
		return
	}

	k := 0
	if raw := r.FormValue("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil {
			WriteError(w, e.Wrap(raw, e.ErrInvalidK))
			return
		}
	}

	res, err := h.visualUC.SimilarImages(r.Context(), &usecase.SimilarImagesReq{Image: img, K: k})
	if err != nil {
		h.logger.Errorf(err, "similar images")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSimilarResponse(res))
}
