package mysql

// User contains the account data for an API key
type User struct {
	ID              int64   `json:"id"`
	APIKey          string  `json:"api_key"`
	Name            string  `json:"name"`
	Balance         float64 `json:"balance"`
	TotalCalls      int64   `json:"total_calls"`
	FailedCalls     int64   `json:"failed_calls"`
	ConcurrentCalls int     `json:"concurrent_calls"`
	Active          bool    `json:"active"`
}

// GetUserByAPIKey fetches the user for an API key
func GetUserByAPIKey(apiKey string) (User, error) {
	var user User
	selectQuery := "SELECT id, api_key, name, balance, total_calls, failed_calls, concurrent_calls, active FROM users WHERE api_key = ?"
	err := dbConn.QueryRow(selectQuery, apiKey).Scan(&user.ID, &user.APIKey, &user.Name, &user.Balance, &user.TotalCalls, &user.FailedCalls, &user.ConcurrentCalls, &user.Active)
	if err != nil {
		return user, err
	}
	return user, nil
}

// GetUserBalance fetches the current balance
func GetUserBalance(userID int64) (float64, error) {
	var balance float64
	selectQuery := "SELECT balance FROM users WHERE id = ?"
	err := dbConn.QueryRow(selectQuery, userID).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// DeductUserBalance subtracts the charge from the user balance
func DeductUserBalance(userID int64, charge float64) error {
	updateQuery := "UPDATE users SET balance = balance - ? WHERE id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(charge, userID)
	if err != nil {
		return err
	}
	return nil
}

// IncrementTotalCalls bumps the total call counter
func IncrementTotalCalls(userID int64) error {
	updateQuery := "UPDATE users SET total_calls = total_calls + 1 WHERE id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(userID)
	if err != nil {
		return err
	}
	return nil
}

// IncrementFailedCalls bumps the failed call counter
func IncrementFailedCalls(userID int64) error {
	updateQuery := "UPDATE users SET failed_calls = failed_calls + 1 WHERE id = ?"
	updateDB, err := dbConn.Prepare(updateQuery)
	if err != nil {
		return err
	}
	defer updateDB.Close()
	_, err = updateDB.Exec(userID)
	if err != nil {
		return err
	}
	return nil
}
