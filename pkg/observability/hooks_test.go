package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolveHooks{}
	r.OnFetch(ctx, "alpha", 0)
	r.OnFetchComplete(ctx, "alpha", time.Second, nil)
	r.OnResolveComplete(ctx, 2, 1, time.Second, nil)

	i := NoopInstallHooks{}
	i.OnInstall(ctx, "txn", "alpha", 1024, nil)
	i.OnRemove(ctx, "txn", "alpha", errors.New("missing"))

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "raw.githubusercontent.com", "/o/r/b/lib/alpha/bpl.json")
	h.OnResponse(ctx, "GET", "raw.githubusercontent.com", "/o/r/b/lib/alpha/bpl.json", 200, time.Second)
	h.OnError(ctx, "GET", "raw.githubusercontent.com", "/o/r/b/lib/alpha/bpl.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Install().(NoopInstallHooks); !ok {
		t.Error("Install() should return NoopInstallHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customInstall := &testInstallHooks{}
	SetInstallHooks(customInstall)
	if Install() != customInstall {
		t.Error("SetInstallHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)
	SetResolveHooks(nil)

	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should be ignored")
	}

	Reset()
}

type testResolveHooks struct{ NoopResolveHooks }
type testInstallHooks struct{ NoopInstallHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
