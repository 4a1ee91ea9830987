package mysql

// CallState mirrors the in-memory call record for recovery and reporting
type CallState struct {
	ID          int64  `json:"id"`
	CallID      string `json:"call_id"`
	UserID      int64  `json:"user_id"`
	ChannelID   string `json:"channel_id"`
	To          string `json:"to"`
	From        string `json:"from"`
	Status      string `json:"status"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	CreatedTime string `json:"created_time"`
	UpdatedTime string `json:"updated_time"`
}

// InsertCallState records a freshly originated call
func InsertCallState(callID string, userID int64, channelID string, to string, from string) error {
	insertQuery := "INSERT INTO call_states (`call_id`, `user_id`, `channel_id`, `to_number`, `from_number`, `status`, `start_time`, `created_time`, `updated_time`) VALUES (?, ?, ?, ?, ?, 'initiated', NOW(), NOW(), NOW())"
	insStmt, err := dbConn.Prepare(insertQuery)
	if err != nil {
		return err
	}
	defer insStmt.Close()
	_, err = insStmt.Exec(callID, userID, channelID, to, from)
	if err != nil {
		return err
	}
	return nil
}

// UpdateCallStatus updates the call status
func UpdateCallStatus(callID string, status string) error {
	updateQuery := "UPDATE call_states SET status = ?, updated_time = NOW() WHERE call_id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(status, callID)
	if err != nil {
		return err
	}
	return nil
}

// UpdateCallChannel updates the channel after an AMD re-entry swaps it
func UpdateCallChannel(callID string, channelID string) error {
	updateQuery := "UPDATE call_states SET channel_id = ?, updated_time = NOW() WHERE call_id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(channelID, callID)
	if err != nil {
		return err
	}
	return nil
}

// MarkCallEnded sets the final status and end time
func MarkCallEnded(callID string, status string) error {
	updateQuery := "UPDATE call_states SET status = ?, end_time = NOW(), updated_time = NOW() WHERE call_id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(status, callID)
	if err != nil {
		return err
	}
	return nil
}

// GetHungCalls fetches calls stuck without a terminal status, oldest first
func GetHungCalls() ([]CallState, error) {
	selQuery := "SELECT id, call_id, user_id, channel_id, to_number, from_number, status, start_time, IFNULL(end_time, ''), created_time, updated_time FROM call_states WHERE status NOT IN ('completed', 'failed', 'terminated') ORDER BY start_time ASC"
	selDB, err := dbConn.Query(selQuery)
	if err != nil {
		return nil, err
	}
	defer selDB.Close()
	var states []CallState
	for selDB.Next() {
		var cs CallState
		if err = selDB.Scan(&cs.ID, &cs.CallID, &cs.UserID, &cs.ChannelID, &cs.To, &cs.From, &cs.Status, &cs.StartTime, &cs.EndTime, &cs.CreatedTime, &cs.UpdatedTime); err != nil {
			return states, err
		}
		states = append(states, cs)
	}
	return states, nil
}

// SweepHungCalls marks non-terminal calls terminated on startup
func SweepHungCalls() (int64, error) {
	updateQuery := "UPDATE call_states SET status = 'terminated', end_time = NOW(), updated_time = NOW() WHERE status NOT IN ('completed', 'failed', 'terminated')"
	res, err := dbConn.Exec(updateQuery)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOldCallStates removes call rows past the retention window
func DeleteOldCallStates(retentionDays int) (int64, error) {
	deleteQuery := "DELETE FROM call_states WHERE created_time < NOW() - INTERVAL ? DAY"
	res, err := dbConn.Exec(deleteQuery, retentionDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
