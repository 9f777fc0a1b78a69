package integration

import (
	"net/http"
	"testing"
)

func TestSignUpActivateSignInFlow(t *testing.T) {
	stack := newTestStack(t)

	stack.signUpAndActivate(t, "alice", "s3cret-pass")
	token := stack.signIn(t, "alice", "s3cret-pass")

	resp, env := stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(token))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("currentUser: status=%d success=%v", resp.StatusCode, env.Success)
	}
}

func TestSignInBeforeActivationFails(t *testing.T) {
	stack := newTestStack(t)

	resp, env := stack.doJSON(t, http.MethodPost, "/api/auth/signUp", map[string]string{
		"username": "bob",
		"password": "s3cret-pass",
		"email":    "bob@example.com",
	}, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("sign up: status=%d success=%v", resp.StatusCode, env.Success)
	}
	stack.waitForActivationURL(t)

	resp, _ = stack.doJSON(t, http.MethodPost, "/api/auth/signIn", map[string]string{
		"login":    "bob",
		"password": "s3cret-pass",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before activation, got %d", resp.StatusCode)
	}
}

func TestDuplicateSignUpConflicts(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "carol", "s3cret-pass")

	resp, env := stack.doJSON(t, http.MethodPost, "/api/auth/signUp", map[string]string{
		"username": "carol",
		"password": "another-pass",
		"email":    "other@example.com",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "USER_EXISTS" {
		t.Fatalf("unexpected error payload: %+v", env.Error)
	}
}

func TestExistsByUsername(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "dave", "s3cret-pass")

	resp, env := stack.doJSON(t, http.MethodGet, "/api/auth/existsByUsername/dave", nil, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("existsByUsername: status=%d success=%v", resp.StatusCode, env.Success)
	}
	if string(env.Data) != `{"exists":true}` {
		t.Fatalf("unexpected payload %s", env.Data)
	}

	_, env = stack.doJSON(t, http.MethodGet, "/api/auth/existsByUsername/nobody", nil, nil)
	if string(env.Data) != `{"exists":false}` {
		t.Fatalf("unexpected payload %s", env.Data)
	}
}

func TestBadCredentialsAreUniform(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "erin", "s3cret-pass")

	for name, body := range map[string]map[string]string{
		"unknown user":   {"login": "ghost", "password": "whatever"},
		"wrong password": {"login": "erin", "password": "wrong"},
	} {
		resp, env := stack.doJSON(t, http.MethodPost, "/api/auth/signIn", body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, resp.StatusCode)
		}
		if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
			t.Fatalf("%s: unexpected error payload %+v", name, env.Error)
		}
	}
}
