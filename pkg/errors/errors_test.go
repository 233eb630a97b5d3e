package errors

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
)

func TestIsStoreUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"deadline", context.DeadlineExceeded, true},
		{"sentinel", ErrStoreUnavailable, true},
		{"语义错误", errors.New("syntax error at or near"), false},
	}
	for _, c := range cases {
		if got := IsStoreUnavailable(c.err); got != c.want {
			t.Errorf("%s: 期望 %v，实际 %v", c.name, c.want, got)
		}
	}
}

func TestWrapStore(t *testing.T) {
	wrapped := WrapStore(driver.ErrBadConn)
	if !errors.Is(wrapped, ErrStoreUnavailable) {
		t.Error("连接错误应被包装为 ErrStoreUnavailable")
	}
	if !errors.Is(wrapped, driver.ErrBadConn) {
		t.Error("包装后应保留原始错误")
	}

	plain := errors.New("constraint violated")
	if WrapStore(plain) != plain {
		t.Error("非连接错误应原样返回")
	}
}
