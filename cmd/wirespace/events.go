package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/wirespace/internal/core"
)

func printEvent(w io.Writer, ev core.Event) {
	switch ev.Kind {
	case core.EventRosterChanged:
		fmt.Fprintf(w, "[roster] %s changed: %s\n", ev.Room, strings.Join(ev.IDs, ", "))
	case core.EventConnectivity:
		if ev.Connected {
			fmt.Fprintln(w, "[channel] connected")
		} else {
			fmt.Fprintln(w, "[channel] disconnected, roster kept")
		}
	case core.EventRejected:
		fmt.Fprintf(w, "[rejected] %s: %s\n", ev.Error.Code, ev.Error.Message)
	case core.EventTyping:
		if ev.Active {
			fmt.Fprintf(w, "[typing] %s is typing\n", ev.Subject)
		}
	case core.EventReaction:
		if ev.Active {
			fmt.Fprintf(w, "[reaction] %s %s\n", ev.Subject, ev.Reaction)
		}
	case core.EventRoomInfo:
		fmt.Fprintf(w, "[room] %s %d/%d\n", ev.RoomInfo.Room, ev.RoomInfo.CurrentUsers, ev.RoomInfo.MaxUsers)
	case core.EventRoomSwitched:
		fmt.Fprintf(w, "[room] switched to %s\n", ev.Room)
	}
}
