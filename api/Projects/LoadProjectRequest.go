package api

type LoadProjectRequest struct {
	Path string `json:"path" validate:"required"`
}
