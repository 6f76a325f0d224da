package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Iamfittz/aptos-core/bcs"
	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/internal/stateapi"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/state"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errStatusCode classify an error into its http status: bad request,
// not found and codec failures are distinguishable without matching
// error text.
func errStatusCode(err error) int {
	var addrErr *common.AddressError
	var parseErr *move.ParseError
	var handleErr *state.HandleError
	if errors.As(err, &addrErr) || errors.As(err, &parseErr) || errors.As(err, &handleErr) {
		return http.StatusBadRequest
	}
	var nf *state.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var codecErr *bcs.Error
	if errors.As(err, &codecErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := errStatusCode(err)
		w.WriteHeader(status)
		jsonData, _ := json.Marshal(&errorBody{Code: status, Message: err.Error()})
		_, _ = w.Write(jsonData)
		return
	}
	w.WriteHeader(http.StatusOK)
	jsonData, _ := json.Marshal(resp)
	_, _ = w.Write(jsonData)
}

// versionFromQuery read the optional version pin from the query string
func versionFromQuery(r *http.Request) (*uint64, error) {
	vals, exist := r.URL.Query()["version"]
	if !exist || len(vals) == 0 {
		return nil, nil
	}
	version, err := common.GetUint64FromStr(vals[0])
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func writeBadRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	jsonData, _ := json.Marshal(&errorBody{Code: http.StatusBadRequest, Message: err.Error()})
	_, _ = w.Write(jsonData)
}

// ServerInfoHandler handle serverinfo
func ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := stateapi.GetServerInfo()
	writeResponse(w, res, err)
}

// VersionInfoHandler handle versioninfo
func VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := stateapi.GetVersionInfo()
	writeResponse(w, res, err)
}

// GetAccountResourceHandler handle account resource lookup
func GetAccountResourceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := versionFromQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := stateapi.GetAccountResource(vars["address"], vars["struct_tag"], version)
	writeResponse(w, res, err)
}

// GetAccountModuleHandler handle account module lookup
func GetAccountModuleHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := versionFromQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := stateapi.GetAccountModule(vars["address"], vars["module_name"], version)
	writeResponse(w, res, err)
}

// GetTableItemHandler handle table item lookup
func GetTableItemHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := versionFromQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req stateapi.TableItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, errors.New("malformed request body: "+err.Error()))
		return
	}
	res, err := stateapi.GetTableItem(vars["table_handle"], &req, version)
	writeResponse(w, res, err)
}

// GetStructLayoutHandler handle struct layout lookup
func GetStructLayoutHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version, err := versionFromQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := stateapi.GetStructLayout(vars["struct_tag"], version)
	writeResponse(w, res, err)
}
