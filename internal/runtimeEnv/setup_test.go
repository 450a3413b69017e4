package runtimeEnv

import "testing"

func TestSystemdNotifyNoopWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	// With NOTIFY_SOCKET unset this must return without attempting to
	// exec systemd-notify (which may not exist on the test host).
	SystemdNotify(true, "ready")
	SystemdNotify(false, "")
}

func TestDropPrivilegesNoopWhenEmpty(t *testing.T) {
	if err := DropPrivileges("", ""); err != nil {
		t.Fatalf("DropPrivileges(\"\", \"\") = %v, want nil", err)
	}
}
