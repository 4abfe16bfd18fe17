package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/lucasmbarros/contracts-api/internal/domain/models"
)

func decodeUserResponse(t *testing.T, rr *httptest.ResponseRecorder) userResponse {
	t.Helper()

	var resp userResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func patchUser(t *testing.T, apiServer *APIServer, id int, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest("PATCH", "/api/users/"+strconv.Itoa(id), bytes.NewReader(data))
	req = mux.SetURLVars(req, map[string]string{"id": strconv.Itoa(id)})
	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(apiServer.updateUserHandler())
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	apiServer, fs := newTestServer()

	rr := postJSON(t, apiServer.createUserHandler(), "/api/users", map[string]string{
		"name":  "John Doe",
		"email": "john@example.com",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeUserResponse(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.ID == nil || *resp.ID != 1 {
		t.Fatalf("expected id 1, got %v", resp.ID)
	}
	if *resp.Name != "John Doe" || *resp.Email != "john@example.com" {
		t.Errorf("echoed fields mismatch: %v %v", *resp.Name, *resp.Email)
	}

	rr = postJSON(t, apiServer.createUserHandler(), "/api/users", map[string]string{
		"name":  "Another John",
		"email": "john@example.com",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp = decodeUserResponse(t, rr)
	if resp.ID != nil {
		t.Errorf("expected null id on conflict, got %v", *resp.ID)
	}
	if resp.Error == nil || resp.Error.Message != "User with this email already exists." {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.Error.UserName != "John Doe" {
		t.Errorf("expected conflicting user name, got %q", resp.Error.UserName)
	}
	if len(fs.users) != 1 {
		t.Fatalf("expected record count unchanged, got %d", len(fs.users))
	}
}

func TestCreateUser_WithPassword(t *testing.T) {
	apiServer, fs := newTestServer()

	rr := postJSON(t, apiServer.createUserHandler(), "/api/users", map[string]string{
		"name":     "Jane",
		"email":    "jane@example.com",
		"password": "hunter2",
	})
	resp := decodeUserResponse(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	stored := fs.users[*resp.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "hunter2" {
		t.Fatalf("password not hashed: %q", stored.PasswordHash)
	}
}

func TestCreateUser_MissingFields(t *testing.T) {
	apiServer, fs := newTestServer()

	rr := postJSON(t, apiServer.createUserHandler(), "/api/users", map[string]string{
		"name": "No Email",
	})
	resp := decodeUserResponse(t, rr)
	if resp.Error == nil {
		t.Fatal("expected validation error")
	}
	if len(fs.users) != 0 {
		t.Fatalf("expected no writes, got %d records", len(fs.users))
	}
}

func TestUpdateUser_EmptyPatchLeavesUserUnchanged(t *testing.T) {
	apiServer, fs := newTestServer()

	fs.users[1] = models.User{ID: 1, Name: "Jane", Email: "jane@example.com", PasswordHash: "h"}
	fs.nextUserID = 2

	rr := patchUser(t, apiServer, 1, map[string]string{})
	resp := decodeUserResponse(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	stored := fs.users[1]
	if stored.Name != "Jane" || stored.Email != "jane@example.com" || stored.PasswordHash != "h" {
		t.Fatalf("empty patch changed the record: %+v", stored)
	}
}

func TestUpdateUser_PartialPatch(t *testing.T) {
	apiServer, fs := newTestServer()

	fs.users[1] = models.User{ID: 1, Name: "Jane", Email: "jane@example.com"}
	fs.nextUserID = 2

	rr := patchUser(t, apiServer, 1, map[string]string{"name": "Jane Updated"})
	resp := decodeUserResponse(t, rr)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if *resp.Name != "Jane Updated" {
		t.Errorf("name not applied: %q", *resp.Name)
	}
	if *resp.Email != "jane@example.com" {
		t.Errorf("omitted field changed: %q", *resp.Email)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	apiServer, _ := newTestServer()

	rr := patchUser(t, apiServer, 9999, map[string]string{"name": "Ghost"})
	resp := decodeUserResponse(t, rr)
	if resp.Error == nil || resp.Error.Message != "User not found." {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func deleteUser(t *testing.T, apiServer *APIServer, id int) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("DELETE", "/api/users/"+strconv.Itoa(id), nil)
	req = mux.SetURLVars(req, map[string]string{"id": strconv.Itoa(id)})
	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(apiServer.deleteUserHandler())
	handler.ServeHTTP(rr, req)
	return rr
}

func TestDeleteUser_BlockedByContracts(t *testing.T) {
	apiServer, fs := newTestServer()

	fs.users[1] = models.User{ID: 1, Name: "Owner", Email: "owner@example.com"}
	fs.nextUserID = 2
	fs.contracts[1] = models.Contract{ID: 1, Description: "c", UserID: 1}
	fs.nextContractID = 2

	rr := deleteUser(t, apiServer, 1)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Fatal("expected delete to be blocked")
	}
	if resp.Message != "User has associated contracts and cannot be deleted." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if len(fs.users) != 1 || len(fs.contracts) != 1 {
		t.Fatal("blocked delete mutated storage")
	}
}

func TestDeleteUser_Success(t *testing.T) {
	apiServer, fs := newTestServer()

	fs.users[1] = models.User{ID: 1, Name: "Loner", Email: "loner@example.com"}
	fs.nextUserID = 2

	rr := deleteUser(t, apiServer, 1)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Message != "User deleted successfully." {
		t.Fatalf("unexpected result: %+v", resp)
	}
	if len(fs.users) != 0 {
		t.Fatal("user still present after delete")
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	apiServer, _ := newTestServer()

	rr := deleteUser(t, apiServer, 9999)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success || resp.Message != "User not found." {
		t.Fatalf("unexpected result: %+v", resp)
	}
}

func TestGetUserAndList(t *testing.T) {
	apiServer, fs := newTestServer()

	fs.users[1] = models.User{ID: 1, Name: "Jane", Email: "jane@example.com"}
	fs.users[2] = models.User{ID: 2, Name: "John", Email: "john@example.com"}
	fs.nextUserID = 3

	req := httptest.NewRequest("GET", "/api/users/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(apiServer.getUserHandler()).ServeHTTP(rr, req)

	var view userView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Name != "Jane" {
		t.Errorf("unexpected user: %+v", view)
	}

	req = httptest.NewRequest("GET", "/api/users/9999", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "9999"})
	rr = httptest.NewRecorder()
	http.HandlerFunc(apiServer.getUserHandler()).ServeHTTP(rr, req)

	if body := rr.Body.String(); body != "null\n" {
		t.Errorf("expected null body for missing user, got %q", body)
	}

	req = httptest.NewRequest("GET", "/api/users", nil)
	rr = httptest.NewRecorder()
	http.HandlerFunc(apiServer.usersHandler()).ServeHTTP(rr, req)

	var list []userView
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
}
