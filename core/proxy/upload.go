package proxy

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/storage"
)

type uploadRequest struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
	Path        string `json:"path"`
}

type uploadResponse struct {
	DownloadURL string `json:"download_url"`
}

func (p *Proxy) handleUpload() {
	logger.Default().Debugln("upload")
	logger.Default().Debugln("  handle upload route: /api/github/upload POST")
	p.router.HandleFunc("/api/github/upload", p.upload).Methods(http.MethodOptions, http.MethodPost)
}

func (p *Proxy) upload(w http.ResponseWriter, r *http.Request) {
	ctx, rlog := logger.ContextWithOperation(r.Context(), "upload")
	r = r.WithContext(ctx)

	var request uploadRequest
	if err := p.decodeRequest(w, r, "upload", "missing file_name or file_content", &request); err != nil {
		writeError(w, r, err)
		return
	}

	// browsers send data URLs, the payload follows the comma
	encoded := request.FileContent
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.IndexByte(encoded, ','); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeError(w, r, &ClientError{Message: "file_content is not valid base64"})
		return
	}

	objectPath := request.Path
	if objectPath == "" {
		objectPath = request.FileName
	}
	objectPath, err = storage.CleanKey(objectPath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	object := storage.Object{
		Path:        objectPath,
		Name:        request.FileName,
		ContentType: mime.TypeByExtension(path.Ext(request.FileName)),
		Content:     content,
	}
	downloadURL, err := p.storage.Upload(ctx, object)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rlog.Infof("uploaded %s (%d bytes)", objectPath, len(content))
	writeJSON(w, r, uploadResponse{DownloadURL: downloadURL})
}
