package errors

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStoreUnavailable 持久化层不可达：本次调用无法落库，应中止当前行/请求
var ErrStoreUnavailable = errors.New("数据存储暂不可用")

// IsStoreUnavailable 判断错误是否属于连接层故障（而非 SQL 语义错误）
func IsStoreUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// WrapStore 将连接层故障统一包装为 ErrStoreUnavailable，其余错误原样返回
func WrapStore(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if IsStoreUnavailable(err) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}
