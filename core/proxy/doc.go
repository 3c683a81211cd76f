/*
Package proxy implements the HTTP surface of the Feishu bitable proxy

A static front-end cannot hold the Feishu application secret. The proxy keeps the secret in
its environment, exchanges it for a tenant access token on every call and forwards one
bitable request per call. Nothing is cached and nothing is retried.

Routes

	GET  /api/config
	POST /api/feishu/access_token
	POST /api/feishu/records/search
	POST /api/feishu/records
	PUT  /api/feishu/records/{record_id}
	POST /api/feishu/records/all
	POST /api/feishu/fields
	POST /api/github/upload
	GET  /version
	GET  /metrics

All bodies are JSON. Every feishu route accepts optional "app_id" and "app_secret", which default
to FEISHU_APP_ID and FEISHU_APP_SECRET. All routes except /api/feishu/access_token also need a
table reference:

	{
	  "bitable_app_token": "bascnXXXX",
	  "bitable_table_id": "tblXXXX"
	}

We can look up the id of the record whose name column equals an activity:

	curl http://localhost:3000/api/feishu/records/search -d'{"bitable_app_token":"bascnXXXX","bitable_table_id":"tblXXXX","activity_name":"Spring Festival"}'
	{"record_id":"recXXXX"}

The column defaults to "name" and can be changed with "name_field_name". If nothing matches,
record_id is null.

Create and update take the record's fields and return the upstream response unchanged:

	curl http://localhost:3000/api/feishu/records -d'{"bitable_app_token":"bascnXXXX","bitable_table_id":"tblXXXX","fields":{"name":"Spring Festival"}}'
	curl -X PUT http://localhost:3000/api/feishu/records/recXXXX -d'{"bitable_app_token":"bascnXXXX","bitable_table_id":"tblXXXX","fields":{"imgurl1":"https://..."}}'

Errors

Failures are reported as {"error": "..."}. A missing table reference, a missing app id or a broken
body is a 400 and no upstream call is made. Everything else is a 500. When Feishu rejected a data
call, its response body is included as "details".

Uploads

/api/github/upload takes {"file_name", "file_content", "path"} where file_content is base64. The file is
stored with the configured storage driver and {"download_url"} is returned.
*/
package proxy
