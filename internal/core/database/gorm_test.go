package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		user string
		pass string
		want string
	}{
		{
			name: "native dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/blog?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/blog?parseTime=true",
		},
		{
			name: "jdbc url rewritten",
			in:   "jdbc:mysql://127.0.0.1:3306/blog?useSSL=false&characterEncoding=utf8",
			user: "app",
			pass: "secret",
			want: "app:secret@tcp(127.0.0.1:3306)/blog?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "url credentials and timezone",
			in:   "mysql://u:p@db:3306/site?serverTimezone=UTC",
			want: "u:p@tcp(db:3306)/site?charset=utf8mb4&loc=UTC&parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(h)/d", maskDSN("root:pw@tcp(h)/d"))
	assert.Equal(t, "file:x.db", maskDSN("file:x.db"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestNewGorm_SQLite(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file:gorm_test?mode=memory&cache=shared", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	defer Close(db)

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}
