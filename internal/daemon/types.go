package daemon

const (
	maxUploadBodyBytes      = 32 << 20
	maxJSONRequestBodyBytes = 1 << 20
)

type statusResponse struct {
	State     string `json:"state"`
	Backend   string `json:"backend"`
	Bucket    string `json:"bucket,omitempty"`
	StartedAt string `json:"started_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}
