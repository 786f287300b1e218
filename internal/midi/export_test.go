package midi

import (
	"bytes"
	"testing"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestPitchKey(t *testing.T) {
	tests := []struct {
		pitch   string
		want    uint8
		wantErr bool
	}{
		{pitch: "C4", want: 60},
		{pitch: "A4", want: 69},
		{pitch: "C#3", want: 49},
		{pitch: "Bb2", want: 46},
		{pitch: "C6", want: 84},
		{pitch: "C-1", want: 0},
		{pitch: "H4", wantErr: true},
		{pitch: "C", wantErr: true},
		{pitch: "C10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.pitch, func(t *testing.T) {
			got, err := PitchKey(tt.pitch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PitchKey(%q) error = %v, wantErr %v", tt.pitch, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("PitchKey(%q) = %d, want %d", tt.pitch, got, tt.want)
			}
		})
	}
}

func TestParseMeter(t *testing.T) {
	for ts, want := range map[string][2]uint8{"3/4": {3, 4}, "6/8": {6, 8}, "": {4, 4}, "x/4": {4, 4}} {
		if n, d := parseMeter(ts); n != want[0] || d != want[1] {
			t.Errorf("parseMeter(%q) = %d/%d, want %d/%d", ts, n, d, want[0], want[1])
		}
	}
}

func strPtr(s string) *string {
	return &s
}

func TestExport(t *testing.T) {
	song := &models.Song{
		Name:          "Demo",
		Tempo:         120,
		TimeSignature: "4/4",
		Bars:          1,
		Tracks: []models.Track{
			{
				ID:             "t1",
				InstrumentType: "piano",
				Volume:         0.8,
				Notes: []models.Note{
					{ID: "n2", Pitch: strPtr("E4"), Duration: "quarter", StartPosition: 4},
					{ID: "n1", Pitch: strPtr("C4"), Duration: "quarter", StartPosition: 0},
					{ID: "bad", Pitch: strPtr("??"), Duration: "quarter", StartPosition: 8},
				},
			},
			{
				ID:             "t2",
				InstrumentType: "drums",
				Volume:         1,
				Notes: []models.Note{
					{ID: "d1", DrumType: strPtr("snare"), Duration: "sixteenth", StartPosition: 2},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, song); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	file, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if len(file.Tracks) != 3 {
		t.Fatalf("tracks = %d, want conductor + 2", len(file.Tracks))
	}

	type hit struct {
		tick uint32
		ch   uint8
		key  uint8
	}
	noteOns := func(tr smf.Track) []hit {
		var out []hit
		var abs uint32
		for _, ev := range tr {
			abs += ev.Delta
			var ch, key, vel uint8
			if gomidi.Message(ev.Message).GetNoteOn(&ch, &key, &vel) && vel > 0 {
				out = append(out, hit{abs, ch, key})
			}
		}
		return out
	}

	piano := noteOns(file.Tracks[1])
	want := []hit{{0, 0, 60}, {4 * ticksPerSixteenth, 0, 64}}
	if len(piano) != len(want) {
		t.Fatalf("piano note-ons = %+v, want %+v", piano, want)
	}
	for i := range want {
		if piano[i] != want[i] {
			t.Errorf("piano[%d] = %+v, want %+v", i, piano[i], want[i])
		}
	}

	drums := noteOns(file.Tracks[2])
	if len(drums) != 1 || drums[0] != (hit{2 * ticksPerSixteenth, drumChannel, 38}) {
		t.Errorf("drum note-ons = %+v", drums)
	}
}
