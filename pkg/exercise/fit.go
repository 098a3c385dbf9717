package exercise

import (
	"bytes"
	"fmt"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

// EncodeFIT renders the exercise's planned sets as a strength-training
// FIT activity starting at start: one active Set message per working set,
// followed by a rest Set when RestSeconds is positive.
func EncodeFIT(ex *Exercise, start time.Time) ([]byte, error) {
	if ex == nil {
		return nil, fmt.Errorf("exercise cannot be nil")
	}
	if len(ex.Sets) == 0 {
		return nil, fmt.Errorf("exercise must have at least one set")
	}

	fit := &proto.FIT{
		Messages: []proto.Message{},
	}

	fileId := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(start)
	fit.Messages = append(fit.Messages, fileId.ToMesg(nil))

	cursor := start
	var index uint16
	for _, set := range ex.Sets {
		setMsg := mesgdef.NewSet(nil).
			SetTimestamp(cursor).
			SetStartTime(cursor).
			SetCategory([]typedef.ExerciseCategory{ex.Category}).
			SetSetType(typedef.SetTypeActive).
			SetMessageIndex(typedef.MessageIndex(index))
		if set.Reps > 0 {
			setMsg.SetRepetitions(uint16(set.Reps))
		}
		if set.WeightKg > 0 {
			setMsg.SetWeightScaled(set.WeightKg)
		}
		fit.Messages = append(fit.Messages, setMsg.ToMesg(nil))
		index++

		if ex.RestSeconds > 0 {
			restMsg := mesgdef.NewSet(nil).
				SetTimestamp(cursor).
				SetStartTime(cursor).
				SetSetType(typedef.SetTypeRest).
				SetDuration(uint32(ex.RestSeconds * 1000)).
				SetMessageIndex(typedef.MessageIndex(index))
			fit.Messages = append(fit.Messages, restMsg.ToMesg(nil))
			index++
			cursor = cursor.Add(time.Duration(ex.RestSeconds) * time.Second)
		}
	}

	elapsedMs := uint32(cursor.Sub(start).Milliseconds())

	lapMsg := mesgdef.NewLap(nil).
		SetTimestamp(start).
		SetStartTime(start).
		SetSport(typedef.SportTraining).
		SetMessageIndex(0)
	sessionMsg := mesgdef.NewSession(nil).
		SetTimestamp(start).
		SetSport(typedef.SportTraining).
		SetStartTime(start)
	if elapsedMs > 0 {
		lapMsg.SetTotalElapsedTime(elapsedMs)
		lapMsg.SetTotalTimerTime(elapsedMs)
		sessionMsg.SetTotalElapsedTime(elapsedMs)
		sessionMsg.SetTotalTimerTime(elapsedMs)
	}
	activityMsg := mesgdef.NewActivity(nil).
		SetTimestamp(start).
		SetType(typedef.ActivityManual).
		SetNumSessions(1)

	// Summary messages go last.
	fit.Messages = append(fit.Messages, lapMsg.ToMesg(nil))
	fit.Messages = append(fit.Messages, sessionMsg.ToMesg(nil))
	fit.Messages = append(fit.Messages, activityMsg.ToMesg(nil))

	var buf bytes.Buffer
	enc := encoder.New(&buf)
	if err := enc.Encode(fit); err != nil {
		return nil, fmt.Errorf("failed to encode FIT file: %w", err)
	}
	return buf.Bytes(), nil
}
