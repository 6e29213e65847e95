package status

import (
	"strings"
	"testing"
)

func TestView(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  []string
	}{
		{
			name:  "offline",
			model: Model{State: "idle", Total: 90, Width: 100},
			want:  []string{"Offline", "idle", "0/90 drawn"},
		},
		{
			name:  "playing",
			model: Model{Connected: true, State: "active", Seed: -12, Draws: 3, Total: 90, Published: 6, Width: 100},
			want:  []string{"Connected", "active", "seed -12", "3/90 drawn", "6 sent"},
		},
		{
			name:  "won",
			model: Model{State: "finished", Draws: 10, Total: 90, Outcome: "won", Width: 100},
			want:  []string{"finished", "won"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.model.View()
			for _, w := range tt.want {
				if !strings.Contains(v, w) {
					t.Errorf("View() missing %q:\n%s", w, v)
				}
			}
		})
	}
}
