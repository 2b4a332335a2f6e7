package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/types"
)

// windowsReserved are device filenames that must never be created even on
// POSIX hosts, since mission files may be synced to Windows machines.
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// resolvePath validates a step-supplied path and anchors it under workRoot.
func (d *Dispatcher) resolvePath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", types.NewError(types.STEP_INVALID_PARAMS, "path parameter is empty")
	}
	if strings.Contains(raw, "..") || strings.Contains(raw, "~") {
		return "", types.NewError(types.STEP_INVALID_PARAMS,
			fmt.Sprintf("path traversal detected: %s", raw))
	}

	base := filepath.Base(raw)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if windowsReserved[strings.ToUpper(base)] {
		return "", types.NewError(types.STEP_INVALID_PARAMS,
			fmt.Sprintf("reserved filename: %s", raw))
	}

	// Absolute paths are stripped to their relative form so every write
	// lands inside the sandbox.
	rel := strings.TrimPrefix(filepath.Clean(raw), string(filepath.Separator))
	resolved := filepath.Join(d.workRoot, rel)

	// Join cleans the result; verify it is still under workRoot.
	if !strings.HasPrefix(resolved, filepath.Clean(d.workRoot)+string(filepath.Separator)) {
		return "", types.NewError(types.STEP_INVALID_PARAMS,
			fmt.Sprintf("path escapes workspace: %s", raw))
	}
	return resolved, nil
}

func (d *Dispatcher) createFile(step *mission.MissionStep) (map[string]any, error) {
	path, err := d.resolvePath(step.StringParam("path"))
	if err != nil {
		return nil, err
	}

	content := step.StringParam("content")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to create parent directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to write file", err)
	}

	return map[string]any{
		"path":          path,
		"bytes_written": len(content),
	}, nil
}

func (d *Dispatcher) editFile(step *mission.MissionStep) (map[string]any, error) {
	path, err := d.resolvePath(step.StringParam("path"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, types.WrapError(types.STEP_EXEC_FAILED,
			fmt.Sprintf("cannot edit %s", step.StringParam("path")), err)
	}

	content := step.StringParam("content")
	if step.BoolParam("append") {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to open file for append", err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to append to file", err)
		}
	} else {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to overwrite file", err)
		}
	}

	return map[string]any{
		"path":          path,
		"bytes_written": len(content),
		"append":        step.BoolParam("append"),
	}, nil
}

func (d *Dispatcher) deleteFile(step *mission.MissionStep) (map[string]any, error) {
	path, err := d.resolvePath(step.StringParam("path"))
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		return nil, types.WrapError(types.STEP_EXEC_FAILED,
			fmt.Sprintf("failed to delete %s", step.StringParam("path")), err)
	}
	return map[string]any{"path": path, "deleted": true}, nil
}
