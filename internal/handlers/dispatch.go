// internal/handlers/dispatch.go
package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizbuzz/quizbuzz/internal/room"
)

// handleMessage routes one inbound packet to the room state machine, with
// the sender's session as the authenticated actor for host-gated operations
// (start_game, answer_result). Join failures are reported back to the
// requester; start/buzz/judge precondition failures are silent no-ops per
// the state machine's contract, so resends are harmless.
func handleMessage(coord *Coordinator, conn *room.Conn, packet map[string]interface{}, logger *logrus.Logger) {
	action, _ := packet["type"].(string)

	switch action {
	case "create_room":
		hostName, _ := packet["hostName"].(string)
		rm := coord.Rooms.CreateRoom(conn, hostName)
		conn.Write(room.Event{Type: room.EventRoomCreated, RoomCode: rm.Code, HostName: hostName})
		logger.Infof("session %s created room %s", conn.SessionID, rm.Code)

	case "join_room":
		code, _ := packet["roomCode"].(string)
		name, _ := packet["participantName"].(string)
		rm, ok := coord.Rooms.Get(code)
		if !ok {
			conn.WriteError("room not found")
			return
		}
		if _, err := rm.AddParticipant(conn, name); err != nil {
			conn.WriteError(err.Error())
			return
		}
		logger.Infof("session %s joined room %s as %q", conn.SessionID, code, name)

	case "start_game":
		code, _ := packet["roomCode"].(string)
		if rm, ok := coord.Rooms.Get(code); ok {
			rm.Start(conn.SessionID)
		}

	case "buzz":
		code, _ := packet["roomCode"].(string)
		rm, ok := coord.Rooms.Get(code)
		if !ok {
			return
		}
		// The buzzing participant defaults to the sender; an explicit
		// participantId in the payload overrides it.
		participantID := conn.SessionID
		if idStr, ok := packet["participantId"].(string); ok && idStr != "" {
			parsed, err := uuid.Parse(idStr)
			if err != nil {
				return
			}
			participantID = parsed
		}
		rm.Buzz(participantID)

	case "answer_result":
		code, _ := packet["roomCode"].(string)
		correct, _ := packet["correct"].(bool)
		if rm, ok := coord.Rooms.Get(code); ok {
			rm.Judge(conn.SessionID, correct)
		}

	case "leave_room":
		code, _ := packet["roomCode"].(string)
		rm, ok := coord.Rooms.Get(code)
		if !ok {
			return
		}
		if rm.HostID == conn.SessionID {
			rm.CloseByHost()
			return
		}
		rm.RemoveParticipant(conn.SessionID)

	default:
		logger.Warnf("session %s sent unknown action %q", conn.SessionID, action)
		conn.WriteError(fmt.Sprintf("unknown action type: %s", action))
	}
}
