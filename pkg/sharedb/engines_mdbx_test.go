//go:build cgo

package sharedb

import "testing"

func TestEngineMDBX(t *testing.T) {
	exerciseEngine(t, EngineMDBX)
}
