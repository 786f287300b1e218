// Package midi renders a song as a Standard MIDI File.
package midi

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the file's time resolution.
const TicksPerQuarter = 960

const ticksPerSixteenth = TicksPerQuarter / 4

// drumChannel is the General MIDI percussion channel (10, zero based 9).
const drumChannel = 9

// General MIDI percussion keys for the grid's drum rows.
var drumKeys = map[string]uint8{
	"bass":  36,
	"snare": 38,
	"hihat": 42,
	"ride":  51,
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// PitchKey converts scientific pitch notation ("C4", "F#3", "Bb2") to a
// MIDI key number, with C4 = 60.
func PitchKey(pitch string) (uint8, error) {
	if len(pitch) < 2 {
		return 0, fmt.Errorf("invalid pitch %q", pitch)
	}
	semi, ok := semitones[pitch[0]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch %q", pitch)
	}
	rest := pitch[1:]
	switch rest[0] {
	case '#':
		semi++
		rest = rest[1:]
	case 'b':
		semi--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid pitch %q: %w", pitch, err)
	}
	key := (octave+1)*12 + semi
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("pitch %q is outside the MIDI range", pitch)
	}
	return uint8(key), nil
}

// parseMeter reads "n/d" time signatures, falling back to 4/4.
func parseMeter(ts string) (num, denom uint8) {
	parts := strings.SplitN(ts, "/", 2)
	if len(parts) != 2 {
		return 4, 4
	}
	n, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || n <= 0 || n > 32 || d <= 0 || d > 32 {
		return 4, 4
	}
	return uint8(n), uint8(d)
}

type event struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

func velocity(volume float64) uint8 {
	v := int(volume * 127)
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func channelFor(instrument string, melodic int) uint8 {
	if instrument == "drums" {
		return drumChannel
	}
	ch := melodic % 15
	if ch >= drumChannel {
		ch++
	}
	return uint8(ch)
}

// Export writes song as a format 1 file: a conductor track with tempo and
// meter followed by one track per song track. Notes whose pitch or drum
// type cannot be mapped are skipped.
func Export(w io.Writer, song *models.Song) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	num, denom := parseMeter(song.TimeSignature)
	songEnd := uint32(song.Bars) * uint32(num) * 4 * ticksPerSixteenth

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName(song.Name))
	conductor.Add(0, smf.MetaMeter(num, denom))
	conductor.Add(0, smf.MetaTempo(float64(song.Tempo)))
	conductor.Close(songEnd)
	if err := s.Add(conductor); err != nil {
		return fmt.Errorf("failed to add conductor track: %w", err)
	}

	melodic := 0
	for _, t := range song.Tracks {
		ch := channelFor(t.InstrumentType, melodic)
		if t.InstrumentType != "drums" {
			melodic++
		}
		tr := renderTrack(t, ch, songEnd)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("failed to add track %s: %w", t.ID, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}
	return nil
}

func renderTrack(t models.Track, ch uint8, songEnd uint32) smf.Track {
	vel := velocity(t.Volume)
	var events []event
	for _, n := range t.Notes {
		key, ok := noteKey(t.InstrumentType, n)
		if !ok {
			continue
		}
		start := uint32(n.StartPosition) * ticksPerSixteenth
		length := uint32(models.DurationSixteenths[n.Duration]) * ticksPerSixteenth
		if length == 0 {
			length = ticksPerSixteenth
		}
		events = append(events,
			event{tick: start, msg: gomidi.NoteOn(ch, key, vel)},
			event{tick: start + length, off: true, msg: gomidi.NoteOff(ch, key)},
		)
	}

	// Note-offs sort before note-ons on the same tick so repeated keys
	// retrigger.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(t.InstrumentType))
	var last uint32
	for _, e := range events {
		tr.Add(e.tick-last, e.msg)
		last = e.tick
	}
	var tail uint32
	if songEnd > last {
		tail = songEnd - last
	}
	tr.Close(tail)
	return tr
}

func noteKey(instrument string, n models.Note) (uint8, bool) {
	if instrument == "drums" {
		if n.DrumType == nil {
			return 0, false
		}
		key, ok := drumKeys[*n.DrumType]
		return key, ok
	}
	if n.Pitch == nil {
		return 0, false
	}
	key, err := PitchKey(*n.Pitch)
	return key, err == nil
}
