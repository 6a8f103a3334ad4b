package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrOutsideBase は相対パスがベースディレクトリの外を指す場合に返される
var ErrOutsideBase = errors.New("path escapes base directory")

// ResolveUnder は base 配下の相対パスを絶対パスに解決する
//
// シンボリックリンクは実体まで解決し、その実体が base の外にあればエラーにする。
// 存在しないパスは存在する最も深い親ディレクトリで判定する。
func ResolveUnder(base, rel string) (string, error) {
	rel = filepath.FromSlash(strings.TrimSpace(rel))
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, rel)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %v", err)
	}
	if realBase, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = realBase
	}

	target := filepath.Join(absBase, rel)
	real, err := evalExisting(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	inside, err := filepath.Rel(absBase, real)
	if err != nil || !filepath.IsLocal(inside) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, rel)
	}
	return real, nil
}

// evalExisting は path のシンボリックリンクを解決する。path が存在しなければ
// 存在する親まで遡って解決し、残りの要素をそのまま連結する。
func evalExisting(path string) (string, error) {
	dir := path
	for {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			rest, _ := filepath.Rel(dir, path)
			return filepath.Join(real, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path, nil
		}
		dir = parent
	}
}
