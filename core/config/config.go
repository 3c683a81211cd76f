// Package config reads the service configuration from the environment.
//
// The configuration is decoded once at startup and handed to every component that
// needs it. Credentials are never compiled into the binary: a missing FEISHU_APP_SECRET
// simply means that callers have to send their own secret.
package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

// Configuration holds the configuration for this service
type Configuration struct {
	Port     int    `env:"PORT,default=3000" description:"the port the HTTP server listens on"`
	LogLevel string `env:"LOG_LEVEL,default=info" description:"logrus log level"`

	GitHub     GitHub
	Feishu     Feishu
	FieldNames FieldNames
	Storage    Storage
}

// GitHub is the repository images are uploaded to
type GitHub struct {
	Owner  string `env:"GITHUB_OWNER" description:"owner of the image repository"`
	Repo   string `env:"GITHUB_REPO" description:"name of the image repository"`
	Token  string `env:"GITHUB_TOKEN" description:"personal access token for the contents API"`
	Branch string `env:"GITHUB_BRANCH,default=main" description:"branch uploads are committed to"`
	APIURL string `env:"GITHUB_API_URL,default=https://api.github.com" description:"base URL of the GitHub REST API"`
}

// Feishu holds the default credentials and table used when a request does not carry its own
type Feishu struct {
	AppID           string        `env:"FEISHU_APP_ID" description:"default Feishu app id"`
	AppSecret       string        `env:"FEISHU_APP_SECRET" description:"default Feishu app secret"`
	BitableAppToken string        `env:"FEISHU_BITABLE_APP_TOKEN" description:"default bitable app token"`
	BitableTableID  string        `env:"FEISHU_BITABLE_TABLE_ID" description:"default bitable table id"`
	BaseURL         string        `env:"FEISHU_BASE_URL,default=https://open.feishu.cn/open-apis" description:"base URL of the Feishu open API"`
	Timeout         time.Duration `env:"UPSTREAM_TIMEOUT,default=20s" description:"timeout for a single upstream call"`
}

// FieldNames maps the logical fields of the front-end to bitable column names
type FieldNames struct {
	ImgURL1 string `env:"FIELD_NAME_IMGURL1"`
	ImgURL2 string `env:"FIELD_NAME_IMGURL2"`
	ImgURL3 string `env:"FIELD_NAME_IMGURL3"`
	Name    string `env:"FIELD_NAME_NAME"`
}

// Storage selects and configures the image upload driver
type Storage struct {
	Driver    string `env:"STORAGE_DRIVER,default=github" description:"github, s3 or local"`
	LocalPath string `env:"STORAGE_LOCAL_PATH" description:"base folder of the local driver"`
	PublicURL string `env:"STORAGE_PUBLIC_URL" description:"public base URL of this service, used by the local driver"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"`
	S3AccessID  string `env:"S3_ACCESS_ID"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3KeyPrefix string `env:"S3_KEY_PREFIX"`
}

// FromEnvironment decodes the configuration from the process environment.
func FromEnvironment() (*Configuration, error) {
	c := &Configuration{}
	if err := envdecode.Decode(c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return c, nil
}

// Snapshot is the configuration as exposed to the front-end
type Snapshot struct {
	GitHub struct {
		Owner  string `json:"owner"`
		Repo   string `json:"repo"`
		Token  string `json:"token"`
		Branch string `json:"branch"`
	} `json:"github"`
	Feishu struct {
		AppID           string `json:"app_id"`
		AppSecret       string `json:"app_secret"`
		BitableAppToken string `json:"bitable_app_token"`
		BitableTableID  string `json:"bitable_table_id"`
	} `json:"feishu"`
	FieldNames struct {
		ImgURL1 string `json:"imgurl1"`
		ImgURL2 string `json:"imgurl2"`
		ImgURL3 string `json:"imgurl3"`
		Name    string `json:"name"`
	} `json:"field_names"`
}

// Snapshot returns the front-end view of the configuration.
func (c *Configuration) Snapshot() Snapshot {
	var s Snapshot
	s.GitHub.Owner = c.GitHub.Owner
	s.GitHub.Repo = c.GitHub.Repo
	s.GitHub.Token = c.GitHub.Token
	s.GitHub.Branch = c.GitHub.Branch
	s.Feishu.AppID = c.Feishu.AppID
	s.Feishu.AppSecret = c.Feishu.AppSecret
	s.Feishu.BitableAppToken = c.Feishu.BitableAppToken
	s.Feishu.BitableTableID = c.Feishu.BitableTableID
	s.FieldNames.ImgURL1 = c.FieldNames.ImgURL1
	s.FieldNames.ImgURL2 = c.FieldNames.ImgURL2
	s.FieldNames.ImgURL3 = c.FieldNames.ImgURL3
	s.FieldNames.Name = c.FieldNames.Name
	return s
}
