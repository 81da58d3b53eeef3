package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runFinstate(t, args...)
	require.NoError(t, err)
	return out
}

func TestTx_AddListDelete(t *testing.T) {
	dir := initProject(t)

	id := strings.TrimSpace(mustRun(t, "-C", dir, "tx", "add", "--type", "income", "--amount", "1200",
		"--account", "acct_everyday", "--date", "2025-03-01"))
	require.NotEmpty(t, id)
	mustRun(t, "-C", dir, "tx", "add", "--type", "transfer", "--amount", "200",
		"--account", "acct_everyday", "--to", "acct_savings", "--date", "2025-03-02")

	out := mustRun(t, "-C", dir, "accounts", "list")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "$200.00")

	out = mustRun(t, "-C", dir, "tx", "delete", id)
	assert.Contains(t, out, "Deleted "+id)
	out = mustRun(t, "-C", dir, "accounts", "list")
	assert.Contains(t, out, "-$200.00")

	_, err := runFinstate(t, "-C", dir, "tx", "add", "--type", "gift", "--amount", "1", "--account", "acct_everyday")
	assert.Error(t, err)
}

func TestTx_ImportExport(t *testing.T) {
	dir := initProject(t)

	out := mustRun(t, "-C", dir, "tx", "import", "../journal/testdata/transactions.csv")
	assert.Contains(t, out, "Imported 6 transactions (0 already recorded, 0 rejected)")
	out = mustRun(t, "-C", dir, "tx", "import", "../journal/testdata/transactions.csv")
	assert.Contains(t, out, "Imported 0 transactions (6 already recorded")

	mustRun(t, "-C", dir, "tx", "export", "--from", "2025-01-01", "--to", "2025-12-31")
	_, err := os.Stat(filepath.Join(dir, "journal", "2025", "01", "transactions.csv"))
	require.NoError(t, err)
}

func TestAccounts_OpenAndExport(t *testing.T) {
	dir := initProject(t)

	id := strings.TrimSpace(mustRun(t, "-C", dir, "accounts", "open", "--name", "House", "--type", "asset", "--balance", "450000"))
	assert.Contains(t, id, "Opened acct_")
	mustRun(t, "-C", dir, "accounts", "export")

	data, err := os.ReadFile(filepath.Join(dir, "accounts", "accounts.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "House,asset,USD,450000.00")

	_, err = runFinstate(t, "-C", dir, "accounts", "open", "--name", "Jar", "--type", "jar")
	assert.Error(t, err)
}

func TestInvestAndSnapshot(t *testing.T) {
	dir := initProject(t)

	holding := strings.TrimSpace(mustRun(t, "-C", dir, "invest", "open", "--account", "acct_brokerage", "--ticker", "vti"))
	mustRun(t, "-C", dir, "invest", "record", "--holding", holding, "--type", "buy",
		"--shares", "10", "--price", "100", "--date", "2025-03-01")
	out := mustRun(t, "-C", dir, "invest", "record", "--holding", holding, "--type", "sell",
		"--shares", "4", "--price", "120", "--fees", "1", "--date", "2025-03-02")
	assert.Contains(t, out, "Capital gain")
	assert.Contains(t, out, "79.00")
	mustRun(t, "-C", dir, "invest", "price", holding, "110")

	out = mustRun(t, "-C", dir, "invest", "list")
	assert.Contains(t, out, "VTI")

	_, err := runFinstate(t, "-C", dir, "invest", "record", "--holding", holding, "--type", "sell", "--shares", "100", "--price", "1")
	assert.Error(t, err)

	out = mustRun(t, "-C", dir, "snapshot", "run", "--as-of", "2025-03-03")
	assert.Contains(t, out, "balances   4 written, 0 skipped")
	assert.Contains(t, out, "net worth  1 written, 0 skipped")
	assert.Contains(t, out, "portfolios 1 written, 0 skipped")

	out = mustRun(t, "-C", dir, "snapshot", "run", "--as-of", "2025-03-03")
	assert.Contains(t, out, "balances   0 written, 4 skipped")

	out = mustRun(t, "-C", dir, "snapshot", "run", "--as-of", "2025-03-03", "--force")
	assert.Contains(t, out, "balances   4 written, 0 skipped")
}

func TestRecur_AddAndRun(t *testing.T) {
	dir := initProject(t)

	id := strings.TrimSpace(mustRun(t, "-C", dir, "recur", "add", "--name", "Rent", "--cadence", "month",
		"--start", "2025-01-31", "--amount", "1500", "--account", "acct_everyday"))
	require.NotEmpty(t, id)

	out := mustRun(t, "-C", dir, "recur", "run", "--today", "2025-03-31")
	assert.Contains(t, out, id+": 3 posted, next due 2025-04-28")

	out = mustRun(t, "-C", dir, "recur", "run", "--today", "2025-03-31")
	assert.NotContains(t, out, id)

	out = mustRun(t, "-C", dir, "accounts", "list")
	assert.Contains(t, out, "-$4,500.00")

	_, err := runFinstate(t, "-C", dir, "recur", "add", "--name", "Bad", "--cadence", "hourly")
	assert.Error(t, err)
}

func TestBudgetStatus(t *testing.T) {
	dir := initProject(t)

	id := strings.TrimSpace(mustRun(t, "-C", dir, "budget", "create", "--name", "March",
		"--start", "2025-03-01", "--end", "2025-03-31", "--item", "groceries=400", "--item", "fun=100"))
	mustRun(t, "-C", dir, "tx", "add", "--type", "income", "--amount", "2000", "--account", "acct_everyday", "--date", "2025-03-01")
	mustRun(t, "-C", dir, "tx", "add", "--type", "expense", "--amount", "300", "--account", "acct_everyday",
		"--category", "groceries", "--date", "2025-03-05")

	out := mustRun(t, "-C", dir, "budget", "status", id, "--today", "2025-03-10")
	assert.Contains(t, out, "March")
	assert.Contains(t, out, "groceries")
	assert.Contains(t, out, "overspending")
	assert.Contains(t, out, "Budgeted 500.00, spent 300.00, income 2000.00")

	_, err := runFinstate(t, "-C", dir, "budget", "create", "--name", "Bad",
		"--start", "2025-03-01", "--end", "2025-03-31", "--item", "groceries")
	assert.Error(t, err)
}

func TestGoalContributeAndStatus(t *testing.T) {
	dir := initProject(t)

	id := strings.TrimSpace(mustRun(t, "-C", dir, "goal", "create", "--name", "Trip", "--target", "1000",
		"--start", "2025-01-01", "--by", "2025-12-31"))

	out := mustRun(t, "-C", dir, "goal", "contribute", id, "600", "--date", "2025-02-01")
	assert.Contains(t, out, "Trip: 600.00 of 1000.00")
	assert.NotContains(t, out, "completed")

	out = mustRun(t, "-C", dir, "goal", "status", id, "--today", "2025-03-01")
	assert.Contains(t, out, "on track")

	out = mustRun(t, "-C", dir, "goal", "contribute", id, "400")
	assert.Contains(t, out, "Goal completed")

	out = mustRun(t, "-C", dir, "goal", "status", id, "--today", "2025-03-01")
	assert.Contains(t, out, "2 contributions totaling 1000.00, last 400.00")
	assert.Contains(t, out, ": Completed: Trip (1000.00)")

	_, err := runFinstate(t, "-C", dir, "goal", "contribute", id, "-5")
	assert.Error(t, err)
}

func TestMissingProject(t *testing.T) {
	_, err := runFinstate(t, "-C", t.TempDir(), "accounts", "list")
	assert.Error(t, err)
}

func TestStatementImport(t *testing.T) {
	dir := initProject(t)
	data, err := os.ReadFile("../importer/testdata/chase_checking.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "jan.csv"), data, 0o644))

	out := mustRun(t, "-C", dir, "statement", "import", "--account", "acct_everyday")
	assert.Contains(t, out, "jan.csv: 6 recorded, 0 already recorded, 0 rejected")
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "jan.csv"))

	out = mustRun(t, "-C", dir, "accounts", "list")
	assert.Contains(t, out, "$1,834.95")

	out = mustRun(t, "-C", dir, "statement", "import", "--account", "acct_everyday",
		filepath.Join(dir, "import", "processed", "jan.csv"))
	assert.Contains(t, out, "jan.csv: 0 recorded, 6 already recorded, 0 rejected")

	out = mustRun(t, "-C", dir, "statement", "import", "--account", "acct_everyday")
	assert.Contains(t, out, "No statements in")

	_, err = runFinstate(t, "-C", dir, "statement", "import", "--account", "acct_everyday", "--format", "ofx",
		filepath.Join(dir, "import", "processed", "jan.csv"))
	assert.Error(t, err)
}

func TestLog_RecordsMutations(t *testing.T) {
	dir := initProject(t)
	id := strings.TrimSpace(mustRun(t, "-C", dir, "tx", "add", "--type", "expense", "--amount", "12.50",
		"--account", "acct_everyday", "--date", "2025-03-01"))
	mustRun(t, "-C", dir, "tx", "delete", id)

	out := mustRun(t, "-C", dir, "log")
	assert.Contains(t, out, "tx add")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "tx delete")
	assert.Contains(t, out, "reversed")
	assert.Contains(t, out, id)

	out = mustRun(t, "-C", dir, "log", "-n", "1")
	assert.NotContains(t, out, "created")
}

func TestRule_CategorizesStatementImport(t *testing.T) {
	dir := initProject(t)
	budget := strings.TrimSpace(mustRun(t, "-C", dir, "budget", "create", "--name", "January",
		"--start", "2025-01-01", "--end", "2025-01-31", "--item", "groceries=400", "--item", "dining=50"))

	id := strings.TrimSpace(mustRun(t, "-C", dir, "rule", "add", "--name", "Supermarket",
		"--operator", "starts_with", "--value", "countdown", "--category", "groceries", "--payee", "Countdown"))
	assert.Contains(t, id, "rule_")
	mustRun(t, "-C", dir, "rule", "add", "--name", "Coffee", "--value", "coffee", "--category", "dining", "--priority", "2")

	out := mustRun(t, "-C", dir, "rule", "list")
	assert.Less(t, strings.Index(out, "Coffee"), strings.Index(out, "Supermarket"))

	data, err := os.ReadFile("../importer/testdata/chase_checking.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "jan.csv"), data, 0o644))
	out = mustRun(t, "-C", dir, "statement", "import", "--account", "acct_everyday")
	assert.Contains(t, out, "jan.csv: 6 recorded, 0 already recorded, 0 rejected, 2 categorized")

	out = mustRun(t, "-C", dir, "budget", "status", budget, "--today", "2025-01-31")
	assert.Regexp(t, `groceries\s+400\.00\s+86\.40`, out)
	assert.Regexp(t, `dining\s+50\.00\s+4\.50`, out)

	_, err = runFinstate(t, "-C", dir, "rule", "add", "--name", "Bad", "--field", "amount",
		"--operator", "contains", "--value", "5", "--category", "x")
	assert.Error(t, err)
}

func TestRecur_UpcomingReminders(t *testing.T) {
	dir := initProject(t)

	power := strings.TrimSpace(mustRun(t, "-C", dir, "recur", "add", "--name", "Power", "--kind", "bill",
		"--start", "2025-03-20", "--amount", "142.50", "--account", "acct_everyday", "--remind-before", "5"))
	mustRun(t, "-C", dir, "recur", "add", "--name", "Gym", "--kind", "bill", "--start", "2025-03-18",
		"--amount", "40", "--autopay")
	mustRun(t, "-C", dir, "recur", "add", "--name", "Allowance", "--start", "2025-03-19", "--amount", "20",
		"--account", "acct_everyday", "--auto=false")

	out := mustRun(t, "-C", dir, "recur", "upcoming", "--today", "2025-03-10")
	assert.Contains(t, out, "Nothing coming due")

	out = mustRun(t, "-C", dir, "recur", "upcoming", "--today", "2025-03-16")
	assert.Contains(t, out, "2025-03-19  Allowance")
	assert.Regexp(t, `2025-03-20\s+Power\s+bill\s+142\.50\s+acct_everyday\s+upcoming`, out)
	assert.NotContains(t, out, "Gym")

	out = mustRun(t, "-C", dir, "recur", "run", "--today", "2025-03-21")
	assert.Contains(t, out, power+": 0 posted, next due 2025-04-20, 1 to settle by hand")

	out = mustRun(t, "-C", dir, "accounts", "list")
	assert.NotContains(t, out, "-$20.00")

	_, err := runFinstate(t, "-C", dir, "recur", "add", "--name", "Bad", "--kind", "bill", "--amount", "-3")
	assert.Error(t, err)
}

func TestAccounts_ListShowsAvailableCredit(t *testing.T) {
	dir := initProject(t)
	mustRun(t, "-C", dir, "tx", "add", "--type", "expense", "--amount", "300", "--account", "acct_credit_card",
		"--date", "2025-03-01")

	out := mustRun(t, "-C", dir, "accounts", "list")
	assert.Contains(t, out, "AVAILABLE CREDIT")
	assert.Regexp(t, `acct_credit_card\s+Credit Card\s+credit\s+-\$300\.00\s+\$4,700\.00`, out)
	assert.Regexp(t, `acct_everyday\s+Everyday\s+cash\s+\$0\.00\s+-\s`, out)
}

func TestSnapshot_History(t *testing.T) {
	dir := initProject(t)

	out := mustRun(t, "-C", dir, "snapshot", "history")
	assert.Contains(t, out, "No net worth snapshots")

	mustRun(t, "-C", dir, "tx", "add", "--type", "income", "--amount", "1000", "--account", "acct_everyday", "--date", "2025-03-01")
	mustRun(t, "-C", dir, "snapshot", "run", "--as-of", "2025-03-01")
	mustRun(t, "-C", dir, "tx", "add", "--type", "expense", "--amount", "250", "--account", "acct_credit_card", "--date", "2025-03-02")
	mustRun(t, "-C", dir, "snapshot", "run", "--as-of", "2025-03-02")

	out = mustRun(t, "-C", dir, "snapshot", "history")
	assert.Regexp(t, `2025-03-01\s+\$1,000\.00\s+\$0\.00\s+\$1,000\.00\s+\$0\.00`, out)
	assert.Regexp(t, `2025-03-02\s+\$1,000\.00\s+\$250\.00\s+\$750\.00\s+-\$250\.00`, out)

	out = mustRun(t, "-C", dir, "snapshot", "history", "--from", "2025-03-02")
	assert.NotContains(t, out, "2025-03-01")
	assert.Contains(t, out, "-$250.00")
}
