package protocol

import (
	"errors"
	"testing"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

func TestDecodeValidCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, cmd any)
	}{
		{
			name:  "login",
			input: `{"command":"login","name":"red","key":"k1","gameID":"g1"}`,
			check: func(t *testing.T, cmd any) {
				login, ok := cmd.(*Login)
				if !ok || login.Name != "red" || login.Key != "k1" || login.GameID != "g1" {
					t.Errorf("Unexpected login %+v", cmd)
				}
			},
		},
		{
			name:  "make_turn",
			input: `{"command":"make_turn","turn":3,"actions":[{"action":"move","id":4,"loc":{"x":1,"y":2}},{"action":"pickup","id":4,"pickupid":7},{"action":"throw","id":4,"dx":-1,"dy":0},{"action":"disintegrate","id":9}]}`,
			check: func(t *testing.T, cmd any) {
				mt, ok := cmd.(*MakeTurn)
				if !ok {
					t.Fatalf("Expected *MakeTurn, got %T", cmd)
				}
				if mt.Turn != 3 || len(mt.Actions) != 4 {
					t.Fatalf("Unexpected make_turn %+v", mt)
				}
				if mt.Actions[0].Kind != engine.ActionMove || *mt.Actions[0].Loc != (engine.Location{X: 1, Y: 2}) {
					t.Errorf("Unexpected move %+v", mt.Actions[0])
				}
				if *mt.Actions[1].PickupID != 7 {
					t.Errorf("Unexpected pickup %+v", mt.Actions[1])
				}
				if *mt.Actions[2].DX != -1 || *mt.Actions[2].DY != 0 {
					t.Errorf("Unexpected throw %+v", mt.Actions[2])
				}
			},
		},
		{
			name:  "create_game",
			input: `{"command":"create_game","map":"default","teams":[{"name":"a","key":"x"},{"name":"b"}],"timeoutMS":500}`,
			check: func(t *testing.T, cmd any) {
				cg, ok := cmd.(*CreateGame)
				if !ok || cg.Map != "default" || len(cg.Teams) != 2 || cg.TimeoutMS != 500 {
					t.Errorf("Unexpected create_game %+v", cmd)
				}
			},
		},
		{
			name:  "spectate without game",
			input: `{"command":"spectate"}`,
			check: func(t *testing.T, cmd any) {
				if _, ok := cmd.(*Spectate); !ok {
					t.Errorf("Expected *Spectate, got %T", cmd)
				}
			},
		},
		{
			name:  "keyframe_request",
			input: `{"command":"keyframe_request","gameID":"abc"}`,
			check: func(t *testing.T, cmd any) {
				if kr, ok := cmd.(*KeyframeRequest); !ok || kr.GameID != "abc" {
					t.Errorf("Unexpected keyframe_request %+v", cmd)
				}
			},
		},
		{
			name:  "list_maps_request",
			input: `{"command":"list_maps_request"}`,
			check: func(t *testing.T, cmd any) {
				if _, ok := cmd.(*ListMapsRequest); !ok {
					t.Errorf("Expected *ListMapsRequest, got %T", cmd)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			tt.check(t, cmd)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"not json", `{"command":`, CodeMalformed},
		{"no command", `{"name":"red"}`, CodeSchema},
		{"unknown command", `{"command":"dance"}`, CodeSchema},
		{"login without name", `{"command":"login"}`, CodeSchema},
		{"make_turn without actions", `{"command":"make_turn","turn":1}`, CodeSchema},
		{"negative turn", `{"command":"make_turn","turn":-1,"actions":[]}`, CodeSchema},
		{"unknown action", `{"command":"make_turn","turn":1,"actions":[{"action":"fly","id":1}]}`, CodeSchema},
		{"fractional id", `{"command":"make_turn","turn":1,"actions":[{"action":"move","id":1.5}]}`, CodeSchema},
		{"keyframe without game", `{"command":"keyframe_request"}`, CodeSchema},
		{"array document", `[1,2,3]`, CodeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if pe.Code != tt.code {
				t.Errorf("Expected code %s, got %s (%s)", tt.code, pe.Code, pe.Reason)
			}
			if pe.Command != CmdError {
				t.Errorf("Expected command %q, got %q", CmdError, pe.Command)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	engineErr := &engine.ClientError{Code: engine.CodeWrongTurn, Message: "wrong turn"}
	if got := AsError(engineErr, CodeInternal); got.Code != CodeWrongTurn || got.Reason != "wrong turn" {
		t.Errorf("Expected engine code preserved, got %+v", got)
	}

	own := NewError(CodeBadKey, "bad key %q", "x")
	if got := AsError(own, CodeInternal); got != own {
		t.Errorf("Expected protocol error passed through, got %+v", got)
	}

	if got := AsError(errors.New("boom"), CodeInternal); got.Code != CodeInternal || got.Reason != "boom" {
		t.Errorf("Expected fallback code, got %+v", got)
	}
}
