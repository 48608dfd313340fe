package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "client":
		handleClient(args)
	case "user":
		handleUser(args)
	case "data":
		handleData(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: dataplane auth <login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleClient(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: dataplane client <create|search>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "create":
		createClient(args[1:])
	case "search":
		searchClients(args[1:])
	default:
		fmt.Printf("unknown client command: %s\n", subCmd)
	}
}

func handleUser(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: dataplane user <create|list>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "create":
		createUser(args[1:])
	case "list":
		listUsers(args[1:])
	default:
		fmt.Printf("unknown user command: %s\n", subCmd)
	}
}

func handleData(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: dataplane data <upload|stats|analytics|train>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "upload":
		uploadFile(args[1:])
	case "stats":
		showStats(args[1:])
	case "analytics":
		showAnalytics(args[1:])
	case "train":
		trainModel(args[1:])
	default:
		fmt.Printf("unknown data command: %s\n", subCmd)
	}
}

// Auth commands
func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/users/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var me map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&me)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ Session invalid: %v\n", me)
		return
	}
	fmt.Printf("✓ Logged in as %v (role: %v, access: %v)\n", me["id"], me["role"], me["access_level"])
}

// Client commands
func createClient(args []string) {
	fs := flag.NewFlagSet("client create", flag.ExitOnError)
	name := fs.String("name", "", "client name")
	clientType := fs.String("type", "company", "client type (company|natural_person)")
	duration := fs.Int("contract-days", 0, "contract duration in days (natural persons only)")

	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"name":        *name,
		"client_type": *clientType,
	}
	if *duration > 0 {
		payload["contract_duration_days"] = *duration
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/clients", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Client created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func searchClients(args []string) {
	fs := flag.NewFlagSet("client search", flag.ExitOnError)
	query := fs.String("q", "", "search query")

	fs.Parse(args)

	req, _ := http.NewRequest("GET", getAPIURL()+"/clients/search?q="+*query, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var clients []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&clients)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range clients {
		fmt.Fprintf(w, "%v\t%v\n", c["id"], c["name"])
	}
	w.Flush()
}

// User commands
func createUser(args []string) {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	role := fs.String("role", "user", "role (root|company_admin|user)")
	client := fs.String("client", "", "client ID (root only)")
	access := fs.String("access", "read_write", "access level (read_only|read_write)")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"email":        *email,
		"password":     *password,
		"role":         *role,
		"access_level": *access,
	}
	if *client != "" {
		payload["client_id"] = *client
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/users", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func listUsers(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/company/users", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var users []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&users)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tROLE\tSTATUS\tACCESS")
	for _, u := range users {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", u["email"], u["role"], u["status"], u["access_level"])
	}
	w.Flush()
}

// Data commands
func uploadFile(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("file", "", "path to csv/xls/xlsx file")
	target := fs.String("client", "", "destination client ID (root only)")

	fs.Parse(args)

	if *path == "" {
		fmt.Println("Error: file is required")
		fs.PrintDefaults()
		return
	}

	file, err := os.Open(*path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if *target != "" {
		writer.WriteField("target_client_id", *target)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(*path))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if _, err := io.Copy(part, file); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	writer.Close()

	req, _ := http.NewRequest("POST", getAPIURL()+"/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Uploaded: %v rows into %v\n", result["rows_processed"], result["schema_name"])
	} else {
		fmt.Printf("✗ Upload failed: %v\n", result)
	}
}

func showStats(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/stats", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var stats map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&stats)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ Stats failed: %v\n", stats)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "clients\t%v\n", stats["total_clients"])
	fmt.Fprintf(w, "users\t%v\n", stats["total_users"])
	fmt.Fprintf(w, "active users\t%v\n", stats["active_users"])
	fmt.Fprintf(w, "datasets\t%v\n", stats["total_datasets"])
	w.Flush()
}

func showAnalytics(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/analytics", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var analytics struct {
		RecentUploads []map[string]interface{} `json:"recent_uploads"`
		TotalRows     int64                    `json:"total_rows"`
	}
	json.NewDecoder(resp.Body).Decode(&analytics)
	if resp.StatusCode != 200 {
		fmt.Println("✗ Analytics failed")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEMA\tROWS\tCREATED")
	for _, s := range analytics.RecentUploads {
		fmt.Fprintf(w, "%v\t%v\t%v\n", s["schema_name"], s["row_count"], s["created_at"])
	}
	w.Flush()
	fmt.Printf("total rows: %d\n", analytics.TotalRows)
}

func trainModel(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	schemaID := fs.String("schema", "", "schema ID to train on")
	target := fs.String("target", "", "target column")
	epochs := fs.Int("epochs", 0, "training epochs")

	fs.Parse(args)

	if *schemaID == "" {
		fmt.Println("Error: schema is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{"schema_id": *schemaID}
	if *target != "" {
		payload["target_column"] = *target
	}
	if *epochs > 0 {
		payload["epochs"] = *epochs
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/ml/train", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Training started: %s\n", body)
	} else {
		fmt.Printf("✗ Training failed: %s\n", body)
	}
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("DATAPLANE_API"); url != "" {
		return url
	}
	return "http://localhost:3000/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.dataplane/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.dataplane", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Dataplane CLI

Usage:
  dataplane <command> [options]

Commands:
  auth    Session management (login, logout, who)
  client  Client operations (create, search) - root access required
  user    User operations (create, list)
  data    Data operations (upload, stats, analytics, train)
  help    Show this help message

Environment Variables:
  DATAPLANE_API    API endpoint (default: http://localhost:3000/api)

Examples:
  dataplane auth login -email root@dataplane.local -password admin
  dataplane client create -name "Acme Corp" -type company
  dataplane user create -email jane@acme.com -password secret -role company_admin -client <id>
  dataplane data upload -file sales.csv
  dataplane data train -schema <id> -target revenue -epochs 100
`)
}
