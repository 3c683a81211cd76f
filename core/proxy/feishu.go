package proxy

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/feishu-proxy/core/feishu"
	"github.com/relabs-tech/feishu-proxy/core/logger"
)

const (
	missingParametersMessage = "missing required parameters"
	missingAppIDMessage      = "missing app id"
	defaultNameFieldName     = "name"
)

type credentialsRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tableRequest struct {
	credentialsRequest
	BitableAppToken string `json:"bitable_app_token"`
	BitableTableID  string `json:"bitable_table_id"`
}

func (t *tableRequest) table() feishu.TableReference {
	return feishu.TableReference{AppToken: t.BitableAppToken, TableID: t.BitableTableID}
}

type searchRequest struct {
	tableRequest
	NameFieldName string `json:"name_field_name"`
	ActivityName  string `json:"activity_name"`
}

type recordRequest struct {
	tableRequest
	Fields feishu.Fields `json:"fields"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type searchResponse struct {
	RecordID *string `json:"record_id"`
}

// credentials fills in the configured defaults for missing credentials. The app id
// is mandatory, the secret is not.
func (p *Proxy) credentials(c credentialsRequest) (feishu.Credentials, error) {
	credentials := feishu.Credentials{AppID: c.AppID, AppSecret: c.AppSecret}
	if credentials.AppID == "" {
		credentials.AppID = p.config.Feishu.AppID
	}
	if credentials.AppSecret == "" {
		credentials.AppSecret = p.config.Feishu.AppSecret
	}
	if credentials.AppID == "" {
		return credentials, &ClientError{Message: missingAppIDMessage}
	}
	return credentials, nil
}

func (p *Proxy) handleFeishu() {
	logger.Default().Debugln("feishu")

	routes := []struct {
		path    string
		method  string
		handler http.HandlerFunc
	}{
		{"/api/feishu/access_token", http.MethodPost, p.accessToken},
		{"/api/feishu/records/search", http.MethodPost, p.searchRecord},
		{"/api/feishu/records/all", http.MethodPost, p.listRecords},
		{"/api/feishu/records", http.MethodPost, p.createRecord},
		{"/api/feishu/records/{record_id}", http.MethodPut, p.updateRecord},
		{"/api/feishu/fields", http.MethodPost, p.listFields},
	}
	for _, route := range routes {
		logger.Default().Debugf("  handle feishu route: %s %s", route.path, route.method)
		p.router.HandleFunc(route.path, route.handler).Methods(http.MethodOptions, route.method)
	}
}

func (p *Proxy) accessToken(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.ContextWithOperation(r.Context(), string(feishu.OperationAccessToken))
	r = r.WithContext(ctx)

	var request credentialsRequest
	if err := p.decodeRequest(w, r, "access_token", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := p.feishu.AcquireToken(ctx, credentials)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, accessTokenResponse{AccessToken: token})
}

func (p *Proxy) searchRecord(w http.ResponseWriter, r *http.Request) {
	ctx, rlog := logger.ContextWithOperation(r.Context(), string(feishu.OperationSearch))
	r = r.WithContext(ctx)

	var request searchRequest
	if err := p.decodeRequest(w, r, "search", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request.credentialsRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fieldName := request.NameFieldName
	if fieldName == "" {
		fieldName = defaultNameFieldName
	}
	recordID, err := p.feishu.SearchRecord(ctx, credentials, request.table(), fieldName, request.ActivityName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recordID == nil {
		rlog.Debugf("no record with %s=%q", fieldName, request.ActivityName)
	}
	writeJSON(w, r, searchResponse{RecordID: recordID})
}

func (p *Proxy) createRecord(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.ContextWithOperation(r.Context(), string(feishu.OperationCreate))
	r = r.WithContext(ctx)

	var request recordRequest
	if err := p.decodeRequest(w, r, "create", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request.credentialsRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := p.feishu.CreateRecord(ctx, credentials, request.table(), request.Fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, body)
}

func (p *Proxy) updateRecord(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.ContextWithOperation(r.Context(), string(feishu.OperationUpdate))
	r = r.WithContext(ctx)
	recordID := mux.Vars(r)["record_id"]

	var request recordRequest
	if err := p.decodeRequest(w, r, "update", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request.credentialsRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := p.feishu.UpdateRecord(ctx, credentials, request.table(), recordID, request.Fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, body)
}

func (p *Proxy) listRecords(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.ContextWithOperation(r.Context(), string(feishu.OperationListAll))
	r = r.WithContext(ctx)

	var request tableRequest
	if err := p.decodeRequest(w, r, "list_all", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request.credentialsRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := p.feishu.ListRecords(ctx, credentials, request.table())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, body)
}

func (p *Proxy) listFields(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.ContextWithOperation(r.Context(), string(feishu.OperationListFields))
	r = r.WithContext(ctx)

	var request tableRequest
	if err := p.decodeRequest(w, r, "fields", missingParametersMessage, &request); err != nil {
		writeError(w, r, err)
		return
	}
	credentials, err := p.credentials(request.credentialsRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := p.feishu.ListFields(ctx, credentials, request.table())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, body)
}
