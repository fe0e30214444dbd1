// Keystone double - HTTP API implementation.

package identityservice

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
)

const authToken = "X-Auth-Token"

// faultBody is the inside of the Openstack error envelope: the fault
// name wraps a message and the status code.
type faultBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (m *IdentityModel) returnFault(w http.ResponseWriter, code int, message string) {
	body, err := json.Marshal(map[string]faultBody{
		faultName(code): {Message: message, Code: code},
	})
	if err != nil {
		http.Error(w, message, code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	w.Write(body)
}

func (m *IdentityModel) sendJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		m.returnFault(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	w.Write(body)
}

// returnError maps a domain error onto its fixed status code.
func (m *IdentityModel) returnError(w http.ResponseWriter, err error) {
	m.returnFault(w, statusFor(err), err.Error())
}

// requireToken gates a handler on a valid X-Auth-Token: 403 when the
// header is missing, 401 when the token fails validation.
func (m *IdentityModel) requireToken(w http.ResponseWriter, r *http.Request) (*Token, bool) {
	value := r.Header.Get(authToken)
	if value == "" {
		m.returnFault(w, http.StatusForbidden, "authentication token required")
		return nil, false
	}
	token, err := m.ValidateToken(value)
	if err != nil {
		m.returnFault(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return token, true
}

// requireAdmin additionally demands the identity-admin role.
func (m *IdentityModel) requireAdmin(w http.ResponseWriter, r *http.Request) (*User, bool) {
	value := r.Header.Get(authToken)
	if value == "" {
		m.returnFault(w, http.StatusForbidden, "authentication token required")
		return nil, false
	}
	user, err := m.ValidateTokenAdmin(value)
	if err != nil {
		m.returnFault(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return user, true
}

// requireServiceAdmin demands the bootstrap service-admin token.
func (m *IdentityModel) requireServiceAdmin(w http.ResponseWriter, r *http.Request) (*User, bool) {
	value := r.Header.Get(authToken)
	if value == "" {
		m.returnFault(w, http.StatusForbidden, "authentication token required")
		return nil, false
	}
	user, err := m.ValidateTokenServiceAdmin(value)
	if err != nil {
		m.returnFault(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return user, true
}

// POST /v2.0/tokens

type passwordCredentialsDoc struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type apiKeyCredentialsDoc struct {
	Username *string `json:"username"`
	ApiKey   *string `json:"apiKey"`
}

type authRequest struct {
	Auth struct {
		PasswordCredentials *passwordCredentialsDoc `json:"passwordCredentials"`
		ApiKeyCredentials   *apiKeyCredentialsDoc   `json:"apiKeyCredentials"`
		RaxKeyCredentials   *apiKeyCredentialsDoc   `json:"RAX-KSKEY:apiKeyCredentials"`
		Token               *struct {
			Id *string `json:"id"`
		} `json:"token"`
		TenantId   string `json:"tenantId"`
		TenantName string `json:"tenantName"`
	} `json:"auth"`
}

// parseCredentials turns a request body into exactly one Credentials
// variant. The dictionary probing happens here, once; the core
// dispatches on the variant.
func parseCredentials(req *authRequest) (Credentials, error) {
	auth := &req.Auth
	switch {
	case auth.PasswordCredentials != nil:
		if auth.PasswordCredentials.Username == nil || auth.PasswordCredentials.Password == nil {
			return nil, NewUserError("passwordCredentials require username and password")
		}
		return PasswordCredentials{
			Username: *auth.PasswordCredentials.Username,
			Password: *auth.PasswordCredentials.Password,
		}, nil
	case auth.ApiKeyCredentials != nil, auth.RaxKeyCredentials != nil:
		creds := auth.ApiKeyCredentials
		if creds == nil {
			creds = auth.RaxKeyCredentials
		}
		if creds.Username == nil || creds.ApiKey == nil {
			return nil, NewUserError("apiKeyCredentials require username and apiKey")
		}
		return ApiKeyCredentials{
			Username: *creds.Username,
			ApiKey:   *creds.ApiKey,
		}, nil
	case auth.Token != nil:
		if auth.Token.Id == nil {
			return nil, NewUserError("token requires an id")
		}
		if auth.TenantId != "" {
			return TokenTenantIdCredentials{
				TenantId: auth.TenantId,
				Token:    *auth.Token.Id,
			}, nil
		}
		if auth.TenantName != "" {
			return TokenTenantNameCredentials{
				TenantName: auth.TenantName,
				Token:      *auth.Token.Id,
			}, nil
		}
		return nil, NewUserError("token authentication requires tenantId or tenantName")
	}
	return nil, NewUserError("unrecognized authentication request")
}

func (m *IdentityModel) handleTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		m.returnFault(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		m.returnFault(w, http.StatusBadRequest, "request must be application/json")
		return
	}
	content, err := ioutil.ReadAll(r.Body)
	if err != nil {
		m.returnFault(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	var req authRequest
	if err := json.Unmarshal(content, &req); err != nil {
		m.returnFault(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	creds, err := parseCredentials(&req)
	if err != nil {
		m.returnError(w, err)
		return
	}
	access, err := m.Authenticate(creds)
	if err != nil {
		logger.Debugf("authentication failed: %v", err)
		m.returnError(w, err)
		return
	}
	m.sendJSON(w, http.StatusOK, access)
}

// GET /v2.0/tenants

type tenantView struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

func viewTenant(t Tenant) tenantView {
	return tenantView{
		Id:          itoa(t.Id),
		Name:        t.Name,
		Description: t.Description,
		Enabled:     t.Enabled,
	}
}

func (m *IdentityModel) handleTenants(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		m.returnFault(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	if _, ok := m.requireServiceAdmin(w, r); !ok {
		return
	}
	tenants := m.Tenants()
	views := make([]tenantView, len(tenants))
	for i, t := range tenants {
		views[i] = viewTenant(t)
	}
	m.sendJSON(w, http.StatusOK, map[string]interface{}{
		"tenants":       views,
		"tenants_links": []string{},
	})
}

// /v2.0/users handlers.

type userView struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Enabled  bool   `json:"enabled"`
}

func viewUser(u *User) userView {
	return userView{
		Id:       itoa(u.Id),
		Username: u.Username,
		Email:    u.Email,
		Enabled:  u.Enabled,
	}
}

type userDoc struct {
	User struct {
		Id       *string `json:"id"`
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Enabled  *bool   `json:"enabled"`
		Password *string `json:"OS-KSADM:password"`
	} `json:"user"`
}

func (m *IdentityModel) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		m.handleGetUsers(w, r)
	case "POST":
		m.handlePostUsers(w, r)
	default:
		m.returnFault(w, http.StatusMethodNotAllowed, "method not supported")
	}
}

func (m *IdentityModel) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := m.requireAdmin(w, r)
	if !ok {
		return
	}
	// Unknown query parameters are ignored.
	if name := r.URL.Query().Get("name"); name != "" {
		user, err := m.UserByName(caller.TenantId, name)
		if err != nil {
			m.returnError(w, err)
			return
		}
		m.sendJSON(w, http.StatusOK, map[string]userView{"user": viewUser(user)})
		return
	}
	users := m.Users(caller.TenantId)
	views := make([]userView, len(users))
	for i := range users {
		views[i] = viewUser(&users[i])
	}
	m.sendJSON(w, http.StatusOK, map[string][]userView{"users": views})
}

func (m *IdentityModel) handlePostUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := m.requireAdmin(w, r)
	if !ok {
		return
	}
	var doc userDoc
	if err := readJSON(r, &doc); err != nil {
		m.returnFault(w, http.StatusBadRequest, err.Error())
		return
	}
	user := &doc.User
	if user.Username == nil || user.Email == nil || user.Enabled == nil {
		m.returnFault(w, http.StatusBadRequest, "username, email and enabled are required")
		return
	}
	if !ValidUsername(*user.Username) {
		m.returnFault(w, http.StatusBadRequest, "invalid username")
		return
	}
	password := ""
	if user.Password != nil {
		if !ValidPassword(*user.Password) {
			m.returnFault(w, http.StatusBadRequest, "invalid password")
			return
		}
		password = *user.Password
	}
	if *user.Username == caller.Username {
		m.returnFault(w, http.StatusConflict,
			fmt.Sprintf("user %q already exists", caller.Username))
		return
	}
	userId, err := m.AddUser(caller.TenantId, *user.Username, *user.Email, password, "", *user.Enabled)
	if err != nil {
		// Insertion failures surface as 404, matching the modeled
		// service.
		m.returnFault(w, http.StatusNotFound, err.Error())
		return
	}
	created, err := m.User(caller.TenantId, userId)
	if err != nil {
		m.returnFault(w, http.StatusNotFound, err.Error())
		return
	}
	m.sendJSON(w, http.StatusCreated, map[string]userView{"user": viewUser(created)})
}

// handleUserById covers /v2.0/users/<id> and
// /v2.0/users/<id>/OS-KSADM/credentials.
func (m *IdentityModel) handleUserById(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v2.0/users/")
	if rest := strings.TrimSuffix(path, "/OS-KSADM/credentials"); rest != path {
		m.handleUserCredentials(w, r, rest)
		return
	}
	userId, err := strconv.Atoi(path)
	if err != nil {
		m.returnFault(w, http.StatusNotFound, "no such user")
		return
	}
	switch r.Method {
	case "GET":
		m.handleGetUser(w, r, userId)
	case "POST":
		m.handleUpdateUser(w, r, userId)
	case "DELETE":
		m.handleDeleteUser(w, r, userId)
	default:
		m.returnFault(w, http.StatusMethodNotAllowed, "method not supported")
	}
}

func (m *IdentityModel) handleGetUser(w http.ResponseWriter, r *http.Request, userId int) {
	token, ok := m.requireToken(w, r)
	if !ok {
		return
	}
	user, err := m.User(token.TenantId, userId)
	if err != nil {
		m.returnError(w, err)
		return
	}
	m.sendJSON(w, http.StatusOK, map[string]userView{"user": viewUser(user)})
}

func (m *IdentityModel) handleUpdateUser(w http.ResponseWriter, r *http.Request, userId int) {
	token, ok := m.requireToken(w, r)
	if !ok {
		return
	}
	var doc userDoc
	if err := readJSON(r, &doc); err != nil {
		m.returnFault(w, http.StatusBadRequest, err.Error())
		return
	}
	update := &doc.User
	if update.Id == nil || update.Username == nil {
		m.returnFault(w, http.StatusBadRequest, "user.id and user.username are required")
		return
	}
	existing, err := m.User(token.TenantId, userId)
	if err != nil {
		m.returnError(w, err)
		return
	}
	email := existing.Email
	if update.Email != nil {
		email = *update.Email
	}
	enabled := existing.Enabled
	if update.Enabled != nil {
		enabled = *update.Enabled
	}
	password := existing.Password
	if update.Password != nil {
		password = *update.Password
	}
	if err := m.UpdateUser(token.TenantId, userId, email, password, existing.ApiKey, enabled); err != nil {
		// Update failures surface as 503, matching the modeled
		// service.
		m.returnFault(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	updated, err := m.User(token.TenantId, userId)
	if err != nil {
		m.returnFault(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	m.sendJSON(w, http.StatusOK, map[string]userView{"user": viewUser(updated)})
}

func (m *IdentityModel) handleDeleteUser(w http.ResponseWriter, r *http.Request, userId int) {
	token, ok := m.requireToken(w, r)
	if !ok {
		return
	}
	if err := m.DeleteUser(token.TenantId, userId); err != nil {
		m.returnError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type credentialsDoc struct {
	PasswordCredentials map[string]string `json:"passwordCredentials"`
}

func (m *IdentityModel) handleUserCredentials(w http.ResponseWriter, r *http.Request, idPart string) {
	if r.Method != "POST" {
		m.returnFault(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}
	caller, ok := m.requireAdmin(w, r)
	if !ok {
		return
	}
	userId, err := strconv.Atoi(idPart)
	if err != nil {
		m.returnFault(w, http.StatusNotFound, "no such user")
		return
	}
	var doc credentialsDoc
	if err := readJSON(r, &doc); err != nil {
		m.returnFault(w, http.StatusBadRequest, err.Error())
		return
	}
	if doc.PasswordCredentials == nil {
		m.returnFault(w, http.StatusBadRequest, "passwordCredentials required")
		return
	}
	user, err := m.User(caller.TenantId, userId)
	if err != nil {
		m.returnError(w, err)
		return
	}
	// Accepted merge keys; anything else in the body is ignored.
	username := user.Username
	email := user.Email
	password := user.Password
	apikey := user.ApiKey
	if v, ok := doc.PasswordCredentials["username"]; ok {
		username = v
	}
	if v, ok := doc.PasswordCredentials["email"]; ok {
		email = v
	}
	if v, ok := doc.PasswordCredentials["password"]; ok {
		password = v
	}
	if v, ok := doc.PasswordCredentials["apikey"]; ok {
		apikey = v
	}
	if username != user.Username {
		if err := m.RenameUser(caller.TenantId, userId, username); err != nil {
			m.returnError(w, err)
			return
		}
	}
	if err := m.UpdateUser(caller.TenantId, userId, email, password, apikey, user.Enabled); err != nil {
		m.returnError(w, err)
		return
	}
	updated, err := m.User(caller.TenantId, userId)
	if err != nil {
		m.returnError(w, err)
		return
	}
	m.sendJSON(w, http.StatusCreated, map[string]userView{"user": viewUser(updated)})
}

func (m *IdentityModel) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		m.returnFault(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	m.sendJSON(w, http.StatusOK, map[string]interface{}{
		"version": map[string]interface{}{
			"id":     "v2.0",
			"status": "CURRENT",
			"links": []map[string]string{
				{"rel": "self", "href": "https://" + m.baseHost + "/v2.0"},
			},
		},
	})
}

func readJSON(r *http.Request, v interface{}) error {
	content, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("cannot read request body")
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("request body is not valid JSON")
	}
	return nil
}

// SetupHTTP attaches all the needed handlers to provide the Keystone
// v2 HTTP API.
func (m *IdentityModel) SetupHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/v2.0", m.handleVersion)
	mux.HandleFunc("/v2.0/tokens", m.handleTokens)
	mux.HandleFunc("/v2.0/tenants", m.handleTenants)
	mux.HandleFunc("/v2.0/users", m.handleUsers)
	mux.HandleFunc("/v2.0/users/", m.handleUserById)
}
