package protocol

import "testing"

// ===== Command Encoding Tests =====

func TestCommandPayload(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"ball speed", BallSpeedCommand(250), "WRIOASISSPEED=250"},
		{"led write", LEDCommand("3", "#ff0000", -20, 150), "WRILED=3;0;#ff0000;-20;150"},
		{"move job", MoveJobCommand(0, 4), "MOVEJOB=0;4"},
		{"change track", ChangeTrackCommand(2), "CMDCHANGETRACK=2"},
		{"add to playlist", AddJobListCommand([]int{10, 20, 30}), "ADDJOBLIST=10,20,30"},
		{"set playlist", SetJobListCommand([]int{7}), "WRIJOBLIST=7"},
		{"clear playlist", SetJobListCommand(nil), "WRIJOBLIST"},
		{"repeat on", RepeatJobCommand(true), "WRIREPEATJOB=1"},
		{"repeat off", RepeatJobCommand(false), "WRIREPEATJOB=0"},
		{"wait after", WaitAfterCommand("2"), "WRIWAITAFTER=2"},
		{"auto clean", AutoCleanCommand(true), "WRIAUTOCLEAN=1"},
		{"upgrade stable", UpgradeCommand(false), "CMDUPGRADE=0"},
		{"upgrade beta", UpgradeCommand(true), "CMDUPGRADE=1"},
		{"play", PlayCommand(), "CMDPLAY"},
		{"pause", PauseCommand(), "CMDPAUSE"},
		{"stop", StopCommand(), "CMDSTOP"},
		{"sleep", SleepCommand(), "CMDSLEEP"},
		{"reboot", RebootCommand(), "CMDBOOT"},
		{"get status", GetStatusCommand(), "GETSTATUS"},
		{"get all", GetAllCommand(), "GETALL"},
		{"get mac", GetMACCommand(), "GETMAC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Payload(); got != tt.want {
				t.Errorf("Payload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandWakeHints(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want bool
	}{
		{"play wakes", PlayCommand(), true},
		{"led with brightness wakes", LEDCommand("0", "", 0, 100), true},
		{"led dark does not wake", LEDCommand("0", "", 0, 0), false},
		{"ball speed does not wake", BallSpeedCommand(200), false},
		{"sleep does not wake", SleepCommand(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd.Wake != tt.want {
				t.Errorf("Wake = %v, want %v", tt.cmd.Wake, tt.want)
			}
		})
	}
}
