package security

import "testing"

func TestIsSafe(t *testing.T) {
	tests := []struct {
		command string
		safe    bool
	}{
		{"ls -la", true},
		{"echo hello", true},
		{"go test ./...", true},
		{"rm -rf /", false},
		{"sudo RM -RF /", false},
		{"rm -r /", false},
		{"rm -rf ~", false},
		{"dd if=/dev/zero of=/dev/sda", false},
		{"mkfs.ext4 /dev/sdb1", false},
		{"cat image > /dev/sda", false},
		{"chmod -R 777 /", false},
		{"chown -R root /srv", false},
		{":(){:&};:", false},
		{":(){ :|:& };:", false},
		{"mv ~ /tmp/home", false},
		{"echo 'rm -rf /' is bad", false}, // substring match is not shell-aware
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := IsSafe(tt.command); got != tt.safe {
				t.Errorf("IsSafe(%q) = %v, want %v", tt.command, got, tt.safe)
			}
		})
	}
}

func TestNeedsConfirmation(t *testing.T) {
	tests := []struct {
		command string
		confirm bool
	}{
		{"rm notes.txt", true},
		{"git rm --cached file", true},
		{"chmod +x run.sh", true},
		{"chown me:me file", true},
		{"./delete-branch.sh", true},
		{"rmdir build", true},
		{"deletefiles.sh", true},
		{"DELETE FROM users", true},
		{"formatter --check", true},
		{"perform --dry-run", true}, // contains "rm"
		{"ls", false},
		{"go fmt ./...", false},
		{"git status", false},
		// hard-blocked commands are not confirmable
		{"rm -rf /", false},
		{"mkfs /dev/sdb", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			req := NeedsConfirmation(tt.command)
			if (req != nil) != tt.confirm {
				t.Fatalf("NeedsConfirmation(%q) = %+v, want confirm=%v", tt.command, req, tt.confirm)
			}
			if req == nil {
				return
			}
			if req.Kind != "exec" {
				t.Errorf("Kind = %q, want exec", req.Kind)
			}
			if req.Command != tt.command {
				t.Errorf("Command = %q, want %q", req.Command, tt.command)
			}
			if req.Message == "" || req.Title == "" {
				t.Error("confirmation request must carry a title and message")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		command string
		want    Verdict
	}{
		{"pwd", Permitted},
		{"rm old.log", RequiresConfirmation},
		{"rmdir build", RequiresConfirmation},
		{"./deletefiles.sh", RequiresConfirmation},
		{"rm -rf /", Forbidden},
	}
	for _, tt := range tests {
		if got := Classify(tt.command); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}

func TestBlockedPattern(t *testing.T) {
	if got := BlockedPattern("DD IF=/dev/zero of=x"); got != "dd if=" {
		t.Errorf("BlockedPattern = %q, want %q", got, "dd if=")
	}
	if got := BlockedPattern("echo ok"); got != "" {
		t.Errorf("BlockedPattern = %q, want empty", got)
	}
}
