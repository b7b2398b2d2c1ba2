package simulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Simulator holds the state of one emulated device and serves its HTTP
// command interface.
//
// All public methods are safe for concurrent use.
type Simulator struct {
	mu sync.Mutex

	serial          string
	mac             string
	softwareVersion string

	status        protocol.StatusCode
	errorCode     int
	ballSpeed     int
	playlist      []int
	playlistIndex int
	progress      int

	ledEffect  string
	ledColorID string
	ledSpeed   int
	brightness int
	color      string

	brightnessMax  int
	busy           bool
	download       int
	wifiConnected  bool
	repeatPlaylist bool
	autoplay       string
	autoClean      bool
}

// New creates a simulated device with firmware-like defaults: stopped,
// empty sand plate, LEDs off.
func New(serial, mac string) *Simulator {
	return &Simulator{
		serial:          serial,
		mac:             mac,
		softwareVersion: "1.0.0-sim",
		status:          protocol.StatusStopped,
		ballSpeed:       200,
		ledEffect:       "0",
		brightnessMax:   200,
		wifiConnected:   true,
		autoplay:        "1",
	}
}

// Serial returns the simulated serial number.
func (s *Simulator) Serial() string {
	return s.serial
}

// Handler returns the HTTP surface: the firmware's root command endpoint
// plus a JSON inspection route.
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleCommand)
	r.Get("/state", s.handleState)
	return r
}

// handleCommand dispatches the first recognised command key in the query.
// The firmware answers every command with text/plain; state requests get
// the snapshot, everything else an acknowledgement.
func (s *Simulator) handleCommand(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	w.Header().Set("Content-Type", "text/plain")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case query.Has("GETSTATUS"), query.Has("GETALL"):
		fmt.Fprint(w, s.statusStringLocked())
		return
	case query.Has("GETMAC"):
		fmt.Fprint(w, s.mac)
		return
	case query.Has("WRIOASISSPEED"):
		s.ballSpeed = atoi(query.Get("WRIOASISSPEED"))
	case query.Has("WRILED"):
		s.applyLEDLocked(query.Get("WRILED"))
	case query.Has("WRIJOBLIST"):
		s.playlist = parseCSV(query.Get("WRIJOBLIST"))
		s.playlistIndex = 0
		s.progress = 0
	case query.Has("ADDJOBLIST"):
		s.playlist = append(s.playlist, parseCSV(query.Get("ADDJOBLIST"))...)
	case query.Has("MOVEJOB"):
		s.moveJobLocked(query.Get("MOVEJOB"))
	case query.Has("CMDCHANGETRACK"):
		if i := atoi(query.Get("CMDCHANGETRACK")); i >= 0 && i < len(s.playlist) {
			s.playlistIndex = i
			s.progress = 0
		}
	case query.Has("WRIREPEATJOB"):
		s.repeatPlaylist = query.Get("WRIREPEATJOB") == "1"
	case query.Has("WRIWAITAFTER"):
		s.autoplay = query.Get("WRIWAITAFTER")
	case query.Has("WRIAUTOCLEAN"):
		s.autoClean = query.Get("WRIAUTOCLEAN") == "1"
	case query.Has("CMDPLAY"):
		if len(s.playlist) > 0 {
			s.status = protocol.StatusPlaying
		}
	case query.Has("CMDPAUSE"):
		if s.status == protocol.StatusPlaying {
			s.status = protocol.StatusPaused
		}
	case query.Has("CMDSTOP"):
		s.status = protocol.StatusStopped
		s.progress = 0
	case query.Has("CMDSLEEP"):
		s.status = protocol.StatusSleeping
	case query.Has("CMDBOOT"):
		s.status = protocol.StatusBooting
		s.progress = 0
	case query.Has("CMDUPGRADE"):
		s.status = protocol.StatusUpdating
	default:
		http.Error(w, "unknown command", http.StatusBadRequest)
		return
	}

	fmt.Fprint(w, "OK")
}

// handleState dumps the simulated state as JSON for inspection.
func (s *Simulator) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	state := map[string]any{
		"serial":         s.serial,
		"status":         s.status.String(),
		"ball_speed":     s.ballSpeed,
		"playlist":       s.playlist,
		"playlist_index": s.playlistIndex,
		"brightness":     s.brightness,
		"led_effect":     s.ledEffect,
		"repeat":         s.repeatPlaylist,
		"auto_clean":     s.autoClean,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// applyLEDLocked parses "effect;0;color;speed;brightness".
func (s *Simulator) applyLEDLocked(value string) {
	parts := strings.Split(value, ";")
	if len(parts) != 5 {
		return
	}
	s.ledEffect = parts[0]
	s.color = parts[2]
	s.ledSpeed = atoi(parts[3])
	s.brightness = atoi(parts[4])
	if s.brightness > 0 && s.status == protocol.StatusSleeping {
		s.status = protocol.StatusStopped
	}
}

// moveJobLocked parses "from;to" and reorders the playlist.
func (s *Simulator) moveJobLocked(value string) {
	parts := strings.Split(value, ";")
	if len(parts) != 2 {
		return
	}
	from, to := atoi(parts[0]), atoi(parts[1])
	if from < 0 || from >= len(s.playlist) || to < 0 || to >= len(s.playlist) {
		return
	}
	track := s.playlist[from]
	rest := append(append([]int{}, s.playlist[:from]...), s.playlist[from+1:]...)
	s.playlist = append(append(append([]int{}, rest[:to]...), track), rest[to:]...)
}

// statusStringLocked renders the 19-field snapshot the firmware emits.
func (s *Simulator) statusStringLocked() string {
	csv := make([]string, len(s.playlist))
	for i, id := range s.playlist {
		csv[i] = strconv.Itoa(id)
	}
	color := s.color
	if color == "" {
		color = "0"
	}

	fields := []string{
		strconv.Itoa(int(s.status)),
		strconv.Itoa(s.errorCode),
		strconv.Itoa(s.ballSpeed),
		strings.Join(csv, ","),
		strconv.Itoa(s.playlistIndex),
		strconv.Itoa(s.progress),
		s.ledEffect,
		s.ledColorID,
		strconv.Itoa(s.ledSpeed),
		strconv.Itoa(s.brightness),
		color,
		bit(s.busy),
		strconv.Itoa(s.download),
		strconv.Itoa(s.brightnessMax),
		bit(s.wifiConnected),
		bit(s.repeatPlaylist),
		s.autoplay,
		bit(s.autoClean),
		s.softwareVersion,
	}
	return strings.Join(fields, ";")
}

func atoi(v string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func parseCSV(csv string) []int {
	var ids []int
	for _, token := range strings.Split(csv, ",") {
		if id := atoi(token); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
