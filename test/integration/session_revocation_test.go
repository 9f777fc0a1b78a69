package integration

import (
	"net/http"
	"testing"
)

func TestSignOutRevokesOnlyPresentedToken(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "alice", "s3cret-pass")

	first := stack.signIn(t, "alice", "s3cret-pass")
	second := stack.signIn(t, "alice", "s3cret-pass")

	resp, _ := stack.doJSON(t, http.MethodPost, "/api/auth/signOut", map[string]bool{"onAllDevices": false}, bearer(first))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign out: %d", resp.StatusCode)
	}

	resp, _ = stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(first))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("signed-out token must be rejected, got %d", resp.StatusCode)
	}
	resp, _ = stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(second))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("other session must survive, got %d", resp.StatusCode)
	}
}

func TestSignOutOnAllDevicesRevokesEverySession(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "alice", "s3cret-pass")
	stack.signUpAndActivate(t, "bob", "s3cret-pass")

	aliceFirst := stack.signIn(t, "alice", "s3cret-pass")
	aliceSecond := stack.signIn(t, "alice", "s3cret-pass")
	bobToken := stack.signIn(t, "bob", "s3cret-pass")

	resp, _ := stack.doJSON(t, http.MethodPost, "/api/auth/signOut", map[string]bool{"onAllDevices": true}, bearer(aliceFirst))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign out all: %d", resp.StatusCode)
	}

	for _, token := range []string{aliceFirst, aliceSecond} {
		resp, _ = stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(token))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("alice token must be revoked, got %d", resp.StatusCode)
		}
	}
	resp, _ = stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(bobToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob's session must be untouched, got %d", resp.StatusCode)
	}
}

func TestTokenBoundToUserAgent(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "alice", "s3cret-pass")
	token := stack.signIn(t, "alice", "s3cret-pass")

	// Same token from a different user agent is rejected with the same 401
	// as every other validation failure.
	headers := bearer(token)
	headers["User-Agent"] = "different-client"
	resp, env := stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, headers)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign user agent, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Message != "invalid or missing token" {
		t.Fatalf("fingerprint failures must not be distinguishable: %+v", env.Error)
	}

	resp, _ = stack.doJSON(t, http.MethodGet, "/api/users/currentUser", nil, bearer(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("original client must stay signed in, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	stack := newTestStack(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/currentUser"},
		{http.MethodGet, "/api/posts/forUser"},
		{http.MethodPost, "/api/users/follow/u1"},
		{http.MethodPost, "/api/votes"},
	} {
		resp, _ := stack.doJSON(t, route.method, route.path, nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 anonymous, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestPublicRoutesServeAnonymous(t *testing.T) {
	stack := newTestStack(t)
	stack.signUpAndActivate(t, "alice", "s3cret-pass")

	resp, env := stack.doJSON(t, http.MethodGet, "/api/users/findBy?name=ali", nil, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("findBy anonymous: status=%d success=%v", resp.StatusCode, env.Success)
	}
}
