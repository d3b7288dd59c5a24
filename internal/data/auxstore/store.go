// Package auxstore reads the SQLite side tables that instrument software
// writes next to dia-PASEF and diagonal-PASEF methods.
package auxstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"timscompare/internal/engine/model"

	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 3
	defaultBusyTimeout = 2 * time.Second
)

const diaWindowsQuery = `SELECT Id, Type, CycleId, OneOverK0Start, OneOverK0End, IsolationMz, IsolationWidth FROM DiaWindowsSpecification`

const templateQuery = `SELECT * FROM Template`

// ErrEmptyTemplate reports a diagonal-PASEF store without a template row.
var ErrEmptyTemplate = errors.New("diagonal template table is empty")

// fileURI turns path into an SQLite file URI. Each path element is escaped so
// that '?', '#' and '%' in folder names cannot end the path early.
func fileURI(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "file:" + strings.Join(parts, "/")
}

// openReadOnly opens path without ever creating or writing it.
func openReadOnly(ctx context.Context, path string, busyTimeout time.Duration) (*sql.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	dsn := fmt.Sprintf("%s?mode=ro&_pragma=busy_timeout(%d)", fileURI(path), busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", path, err)
	}
	return db, nil
}

// ReadDiaWindows returns every row of the dia-PASEF window table in Id order
// as stored.
func ReadDiaWindows(ctx context.Context, path string, busyTimeout time.Duration) ([]model.DiaWindow, error) {
	db, err := openReadOnly(ctx, path, busyTimeout)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var out []model.DiaWindow
	err = withRetry("read dia windows", func() error {
		out = out[:0]
		rows, err := db.QueryContext(ctx, diaWindowsQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				w             model.DiaWindow
				id, typ, cyc  sql.NullInt64
				k0s, k0e      sql.NullFloat64
				isoMz, isoWid sql.NullFloat64
			)
			if err := rows.Scan(&id, &typ, &cyc, &k0s, &k0e, &isoMz, &isoWid); err != nil {
				return err
			}
			if !typ.Valid {
				return fmt.Errorf("window %d has no type", id.Int64)
			}
			w.ID = int(id.Int64)
			w.Type = int(typ.Int64)
			w.CycleID = int(cyc.Int64)
			w.OneOverK0Start = k0s.Float64
			w.OneOverK0End = k0e.Float64
			w.IsolationMz = isoMz.Float64
			w.IsolationWidth = isoWid.Float64
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ReadDiagonalTemplate returns the first row of the diagonal-PASEF template
// table. Unknown columns are kept in Extra.
func ReadDiagonalTemplate(ctx context.Context, path string, busyTimeout time.Duration) (model.DiagonalTemplate, error) {
	db, err := openReadOnly(ctx, path, busyTimeout)
	if err != nil {
		return model.DiagonalTemplate{}, err
	}
	defer db.Close()

	var tpl model.DiagonalTemplate
	err = withRetry("read diagonal template", func() error {
		rows, err := db.QueryContext(ctx, templateQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return ErrEmptyTemplate
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		tpl, err = templateFromRow(cols, values)
		return err
	})
	if err != nil {
		return model.DiagonalTemplate{}, fmt.Errorf("%s: %w", path, err)
	}
	return tpl, nil
}

func templateFromRow(cols []string, values []any) (model.DiagonalTemplate, error) {
	var tpl model.DiagonalTemplate
	for i, col := range cols {
		v := values[i]
		switch strings.ToLower(col) {
		case "slope":
			tpl.Slope = floatPtr(v)
		case "origin":
			tpl.Origin = floatPtr(v)
		case "width_mz":
			tpl.WidthMz = floatPtr(v)
		case "isolation_mz":
			tpl.IsolationMz = floatPtr(v)
		case "number_of_slices":
			n, err := intOf(col, v)
			if err != nil {
				return tpl, err
			}
			tpl.NumberOfSlices = n
		case "insert_ms_scan":
			n, err := intOf(col, v)
			if err != nil {
				return tpl, err
			}
			tpl.InsertMSScans = n
		default:
			if v == nil {
				continue
			}
			if tpl.Extra == nil {
				tpl.Extra = make(map[string]string)
			}
			tpl.Extra[col] = textOf(v)
		}
	}
	return tpl, nil
}

func floatPtr(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int64:
		f = float64(x)
	case string, []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(textOf(x)), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func intOf(col string, v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	f := floatPtr(v)
	if f == nil {
		return 0, fmt.Errorf("column %s: %v is not a number", col, v)
	}
	return int(*f), nil
}

func textOf(v any) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
