package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

const filesRoute = "/files/"

// LocalConfiguration contains the configuration for the local filesystem driver
type LocalConfiguration struct {
	BasePath string
}

// LocalFilesystem stores objects below a base folder and serves them through the router
type LocalFilesystem struct {
	baseFolder string
	publicURL  url.URL
}

// NewLocalFilesystem returns a new LocalFilesystem and installs the download route
// /files/{key} on router.
func NewLocalFilesystem(router *mux.Router, c LocalConfiguration, publicURL url.URL) (*LocalFilesystem, error) {
	if c.BasePath == "" {
		return nil, fmt.Errorf("BasePath must not be empty")
	}
	if err := os.MkdirAll(c.BasePath, 0700); err != nil {
		return nil, err
	}
	f := &LocalFilesystem{baseFolder: c.BasePath, publicURL: publicURL}

	logger.Default().Debugln("filesystem routes enabled")
	logger.Default().Debugln("  handle files route: " + filesRoute + "{key} GET")
	router.PathPrefix(filesRoute).Handler(http.HandlerFunc(f.handler)).Methods(http.MethodOptions, http.MethodGet)
	return f, nil
}

func (f *LocalFilesystem) handler(w http.ResponseWriter, r *http.Request) {
	key, err := CleanKey(strings.TrimPrefix(r.URL.Path, filesRoute))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.FromContext(r.Context()).Infof("Filesystem: [%s] key: '%s'", r.Method, key)
	http.ServeFile(w, r, filepath.Join(f.baseFolder, filepath.FromSlash(key)))
}

// Upload writes the object below the base folder and returns its public URL.
func (f *LocalFilesystem) Upload(ctx context.Context, object Object) (string, error) {
	key, err := CleanKey(object.Path)
	if err != nil {
		return "", err
	}
	filePath := filepath.Join(f.baseFolder, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(filePath, object.Content, 0600); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Infof("Filesystem: stored key: '%s'", key)

	u := f.publicURL
	u.Path = strings.TrimSuffix(u.Path, "/") + filesRoute + key
	return u.String(), nil
}
