package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

func pickerKey(t *testing.T, m RoomPickerModel, k tea.KeyPressMsg) (RoomPickerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(RoomPickerModel), cmd
}

func TestRoomPicker_SelectsWithWrap(t *testing.T) {
	m := NewRoomPickerModel([]RoomOption{
		{ID: "room-1", Name: "Algorithms", Messages: 3},
		{ID: "room-2", Name: "Go study", Messages: 1},
		{ID: "room-3", Messages: 0},
	})

	// Up from the first row wraps to the last.
	m, _ = pickerKey(t, m, tea.KeyPressMsg{Code: tea.KeyUp})
	m, _ = pickerKey(t, m, tea.KeyPressMsg{Code: tea.KeyUp})
	m, cmd := pickerKey(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit the picker")
	}

	res := m.Result()
	if res.Cancelled || res.Room == nil || res.Room.ID != "room-2" {
		t.Errorf("result = %+v, want room-2", res)
	}
}

func TestRoomPicker_Cancel(t *testing.T) {
	m := NewRoomPickerModel([]RoomOption{{ID: "room-1"}})
	m, cmd := pickerKey(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc should quit the picker")
	}
	if res := m.Result(); !res.Cancelled || res.Room != nil {
		t.Errorf("result = %+v, want cancelled", res)
	}
}

func TestRoomPicker_EmptyListIgnoresEnter(t *testing.T) {
	m := NewRoomPickerModel(nil)
	m, cmd := pickerKey(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
	if !strings.Contains(ansi.Strip(m.View().Content), "No rooms available.") {
		t.Errorf("view = %q", ansi.Strip(m.View().Content))
	}
}

func TestRoomPicker_ViewListsRooms(t *testing.T) {
	m := NewRoomPickerModel([]RoomOption{
		{ID: "room-1", Name: "Algorithms", Messages: 1},
		{ID: "room-9", Messages: 42},
	})
	out := ansi.Strip(m.View().Content)
	for _, want := range []string{"> Algorithms", "1 message", "room-9", "42 messages"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}
