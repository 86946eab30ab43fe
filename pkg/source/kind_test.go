package source

import (
	"errors"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{UserConfig, "user_config"},
		{UserKnownHosts, "user_known_hosts"},
		{SystemKnownHosts1, "system_known_hosts"},
		{SystemKnownHosts2, "system_known_hosts_legacy"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKinds_Order(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 4 {
		t.Fatalf("expected 4 kinds, got %d", len(kinds))
	}
	if kinds[0] != UserConfig {
		t.Errorf("first kind = %v, want user_config", kinds[0])
	}
	for _, k := range kinds[1:] {
		if k.IsConfig() {
			t.Errorf("kind %v should use known_hosts syntax", k)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"user_config", UserConfig, false},
		{"USER_KNOWN_HOSTS", UserKnownHosts, false},
		{"system-known-hosts", SystemKnownHosts1, false},
		{" system_known_hosts_legacy ", SystemKnownHosts2, false},
		{"global", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				var unknown *UnknownKindError
				if !errors.As(err, &unknown) {
					t.Fatalf("expected UnknownKindError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKind_EnvName(t *testing.T) {
	if got := SystemKnownHosts2.EnvName(); got != "SYSTEM_KNOWN_HOSTS_LEGACY" {
		t.Errorf("EnvName() = %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths("/home/alice")

	want := map[Kind]string{
		UserConfig:        "/home/alice/.ssh/config",
		UserKnownHosts:    "/home/alice/.ssh/known_hosts",
		SystemKnownHosts1: "/etc/ssh/ssh_known_hosts",
		SystemKnownHosts2: "/etc/ssh_known_hosts",
	}
	for k, v := range want {
		if paths[k] != v {
			t.Errorf("DefaultPaths()[%v] = %q, want %q", k, paths[k], v)
		}
	}
}

func TestPaths_Merge(t *testing.T) {
	base := DefaultPaths("/home/alice")
	merged := base.Merge(Paths{
		UserConfig:     "/tmp/config",
		UserKnownHosts: "",
	})

	if merged[UserConfig] != "/tmp/config" {
		t.Errorf("override not applied: %q", merged[UserConfig])
	}
	if merged[UserKnownHosts] != "/home/alice/.ssh/known_hosts" {
		t.Errorf("empty override should be ignored: %q", merged[UserKnownHosts])
	}
	if base[UserConfig] != "/home/alice/.ssh/config" {
		t.Error("Merge modified the receiver")
	}
}
