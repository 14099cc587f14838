package reminder

import "os/exec"

// Permission reports whether notifications may be delivered right now.
type Permission interface {
	Granted() bool
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func() bool

// Granted calls f.
func (f PermissionFunc) Granted() bool { return f() }

type staticPermission bool

func (p staticPermission) Granted() bool { return bool(p) }

const (
	// Granted always allows delivery.
	Granted staticPermission = true

	// Denied never allows delivery.
	Denied staticPermission = false
)

// CommandPermission grants delivery when the named command can be found.
func CommandPermission(name string) Permission {
	if name == "" {
		name = DefaultCommand
	}
	return PermissionFunc(func() bool {
		_, err := exec.LookPath(name)
		return err == nil
	})
}
