package arm

import (
	"strings"
	"testing"
)

func TestParseCommandVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			"move_cam",
			"ops,1,move_cam,45,-30,0.75;",
			MoveCam{Head: Header{Origin: "ops", ID: 1, Name: "move_cam"}, Pan: 45, Tilt: -30, HeightMetres: 0.75},
		},
		{
			"set_pos home",
			"ops,2,set_pos,home;",
			SetPosition{Head: Header{Origin: "ops", ID: 2, Name: "set_pos"}, Pose: PoseHome},
		},
		{
			"set_pos giraffe",
			"ops,3,set_pos,giraffe;",
			SetPosition{Head: Header{Origin: "ops", ID: 3, Name: "set_pos"}, Pose: PoseGiraffe},
		},
		{
			"set_home",
			"ops,4,set_home;",
			SetHome{Head: Header{Origin: "ops", ID: 4, Name: "set_home"}},
		},
		{
			"power on",
			"ops,5,power,on;",
			Power{Head: Header{Origin: "ops", ID: 5, Name: "power"}, On: true},
		},
		{
			"power off",
			"ops,6,power,off;",
			Power{Head: Header{Origin: "ops", ID: 6, Name: "power"}, On: false},
		},
		{
			"brakes",
			"ops,7,brakes;",
			Brakes{Head: Header{Origin: "ops", ID: 7, Name: "brakes"}},
		},
		{
			"stop aliases brakes",
			"ops,8,stop;",
			Brakes{Head: Header{Origin: "ops", ID: 8, Name: "brakes"}},
		},
		{
			"auto_init",
			"ops,9,auto_init;",
			AutoInit{Head: Header{Origin: "ops", ID: 9, Name: "auto_init"}},
		},
		{
			"auto_init with force limit",
			"ops,10,auto_init,55;",
			AutoInitForce{Head: Header{Origin: "ops", ID: 10, Name: "auto_init"}, ForceLimit: 55},
		},
		{
			"initj",
			"ops,11,initj,3,-2.5;",
			JointMove{Head: Header{Origin: "ops", ID: 11, Name: "initj"}, Joint: 3, DeltaDeg: -2.5},
		},
		{
			"no trailing semicolon",
			"ops,12,brakes",
			Brakes{Head: Header{Origin: "ops", ID: 12, Name: "brakes"}},
		},
		{
			"whitespace tolerated around header fields",
			" ops , 13 , brakes ;",
			Brakes{Head: Header{Origin: "ops", ID: 13, Name: "brakes"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, perr := ParseCommand(tt.line)
			if perr != nil {
				t.Fatalf("ParseCommand(%q): %v", tt.line, perr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode int
	}{
		{"empty line", "", CodeFormatError},
		{"too few fields", "ops,1;", CodeFormatError},
		{"unknown name", "ops,1,dance;", CodeUnknownCommand},
		{"non-numeric id", "ops,abc,brakes;", CodeFormatError},
		{"move_cam missing field", "ops,1,move_cam,45,-30;", CodeFormatError},
		{"move_cam non-numeric field", "ops,1,move_cam,45,-30,high;", CodeFormatError},
		{"set_pos unknown pose", "ops,1,set_pos,crouch;", CodeFormatError},
		{"power bad state", "ops,1,power,maybe;", CodeFormatError},
		{"initj joint out of range", "ops,1,initj,6,1.0;", CodeFormatError},
		{"initj extra field", "ops,1,initj,1,1.0,2.0;", CodeFormatError},
		{"auto_init bad force limit", "ops,1,auto_init,-5;", CodeFormatError},
		{"auto_init too many fields", "ops,1,auto_init,40,60;", CodeFormatError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, perr := ParseCommand(tt.line)
			if perr == nil {
				t.Fatalf("ParseCommand(%q) should have failed", tt.line)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", perr.Code, tt.wantCode, perr.Message)
			}
		})
	}
}

func TestProtocolErrorAckEchoesLine(t *testing.T) {
	_, perr := ParseCommand("ops,1,dance;")
	if perr == nil {
		t.Fatal("expected parse error")
	}
	ack := perr.Ack()
	if !strings.HasPrefix(ack, "ops,1,dance,2,") {
		t.Errorf("ack = %q, want prefix ops,1,dance,2,", ack)
	}
	if !strings.HasSuffix(ack, ";") {
		t.Errorf("ack = %q, want trailing semicolon", ack)
	}
}

func TestSerialiseRoundTrip(t *testing.T) {
	lines := []string{
		"ops,1,move_cam,45,-30,0.75",
		"ops,2,set_pos,home",
		"ops,3,set_home",
		"ops,4,power,on",
		"ops,5,brakes",
		"ops,6,auto_init",
		"ops,7,auto_init,55",
		"ops,8,initj,3,-2.5",
	}
	for _, line := range lines {
		cmd, perr := ParseCommand(line + ";")
		if perr != nil {
			t.Fatalf("ParseCommand(%q): %v", line, perr)
		}
		if got := cmd.Serialise(); got != line {
			t.Errorf("Serialise = %q, want %q", got, line)
		}
	}
}

func TestFormatErrorNamesFieldsAndTypes(t *testing.T) {
	_, perr := ParseCommand("ops,1,move_cam,oops;")
	if perr == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(perr.Message, "pan,tilt,height") {
		t.Errorf("message %q should list the expected fields", perr.Message)
	}
	if !strings.Contains(perr.Message, "s,ui,s,d,d,d") {
		t.Errorf("message %q should list the expected types", perr.Message)
	}
}
