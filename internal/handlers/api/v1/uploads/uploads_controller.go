package uploads

import (
	"errors"
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

const maxMultipartMemory = 10 << 20

// UploadsController stores activity photos and organizer proofs
type UploadsController struct {
	base.Controller
	files services.FileService
}

// NewUploadsController creates the controller
func NewUploadsController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *UploadsController {
	return &UploadsController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		files:      serviceCollection.FileService,
	}
}

// Upload godoc
// @Summary Upload an image
// @Tags Uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param kind formData string false "activity or proof"
// @Success 201 {object} response.APIResponse{data=utils.UploadResult}
// @Failure 400 {object} response.APIResponse
// @Failure 503 {object} response.APIResponse "Uploads not configured"
// @Router /uploads [post]
func (c *UploadsController) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Fail(w, r, services.InvalidInputError("file", "file is too large"), "upload")
			return
		}
		c.Fail(w, r, services.NewValidationError("Expected a multipart form", err), "upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	_, header, err := r.FormFile("file")
	if err != nil {
		c.Fail(w, r, services.InvalidInputError("file", "is required"), "upload")
		return
	}

	result, err := c.files.Upload(ctx, c.UserID(r), services.UploadKind(r.FormValue("kind")), header)
	if err != nil {
		c.Fail(w, r, err, "upload")
		return
	}
	c.ResponseBuilder.WriteCreated(w, r, result)
}
