package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"expert/chat"
	"expert/logger"
	"expert/session"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenLifetime = 7 * 24 * time.Hour

const evictionInterval = time.Hour

type server_data struct {
	controller *chat.Controller
	sessions   *session.Store
	secretKey  []byte
	password   string
}

// NewHandler builds the routes. An empty password accepts any login.
func NewHandler(controller *chat.Controller, sessions *session.Store, secret string, password string) http.Handler {
	server_data := &server_data{
		controller: controller,
		sessions:   sessions,
		secretKey:  []byte(secret),
		password:   password,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", server_data.handleRoot)
	mux.HandleFunc("/api/login", server_data.handleLogin)
	mux.HandleFunc("/api/turn", server_data.handleTurn)
	mux.HandleFunc("/api/reset", server_data.handleReset)
	mux.HandleFunc("/api/logout", server_data.handleLogout)
	mux.HandleFunc("/api/transcript", server_data.handleTranscript)
	mux.HandleFunc("/status", server_data.handleStatus)
	return mux
}

func Run(secure bool, port int, controller *chat.Controller, sessions *session.Store, secret string, password string) error {
	handler := NewHandler(controller, sessions, secret, password)
	// a session idle for a whole token lifetime can no longer be reached
	go evictIdleSessions(sessions, tokenLifetime, evictionInterval)

	log.Println("server running on port", port)

	var err error
	if secure {
		err = http.ListenAndServeTLS(fmt.Sprintf(":%d", port), "cert.pem", "key.pem", handler)
	} else {
		err = http.ListenAndServe(fmt.Sprintf(":%d", port), handler)
	}
	return err
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type turnRequest struct {
	Prompt string `json:"prompt"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type TurnResponse struct {
	Answer string `json:"answer"`
	Failed bool   `json:"failed"`
}

type TranscriptResponse struct {
	Turns []session.Turn `json:"turns"`
}

func parseJSON(r *http.Request, req any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("Content-Type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Screen(fmt.Sprintf("\nerror reading request body\n: %v", err), color.RGB(250, 150, 150))
		return fmt.Errorf("error reading request body: %v", err)
	}
	defer r.Body.Close()

	err = json.Unmarshal(body, req)
	if err != nil {
		logger.Screen(fmt.Sprintf("\nerror parsing JSON: %v\n", err), color.RGB(250, 150, 150))
		return fmt.Errorf("error parsing JSON: %v", err)
	}

	return nil
}

func parseLoginRequest(r *http.Request) (loginRequest, error) {
	logger.Screen("Recieved login through http", color.RGB(150, 150, 150))
	var req loginRequest

	if err := parseJSON(r, &req); err != nil {
		return req, err
	}
	if req.Username == "" {
		return req, fmt.Errorf("no username in request body")
	}
	return req, nil
}

func parseTurnRequest(r *http.Request) (turnRequest, error) {
	logger.Screen("Recieved turn through http", color.RGB(150, 150, 150))
	var req turnRequest

	if err := parseJSON(r, &req); err != nil {
		return req, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return req, fmt.Errorf("no prompt in request body")
	}
	return req, nil
}

type claims struct {
	Username string
	Session  string
}

func (server_data *server_data) CreateToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"session":  uuid.NewString(),
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	})
	return token.SignedString(server_data.secretKey)
}

func (server_data *server_data) GetClaimsFromToken(tokenString string) (claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return server_data.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return claims{}, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return claims{}, fmt.Errorf("invalid token")
	}

	username, _ := mapClaims["username"].(string)
	sessionId, _ := mapClaims["session"].(string)
	if username == "" || sessionId == "" {
		return claims{}, fmt.Errorf("invalid token")
	}
	return claims{Username: username, Session: sessionId}, nil
}

func (server_data *server_data) authenticate(r *http.Request) (claims, error) {
	authenticationHeader := r.Header.Get("Authorization")
	if authenticationHeader == "" {
		logger.Screen("Recieved empty authorization header", color.RGB(150, 150, 150))
		return claims{}, fmt.Errorf("Did not receive authentication header")
	}
	possibleToken, _ := strings.CutPrefix(authenticationHeader, "Bearer ")
	c, err := server_data.GetClaimsFromToken(possibleToken)
	if err != nil {
		logger.Screen("Could not get claims from token", color.RGB(150, 150, 150))
		return claims{}, fmt.Errorf("incorrectly formated authentication header")
	}
	return c, nil
}

func (server_data *server_data) handleLogin(w http.ResponseWriter, r *http.Request) {
	enableCors(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	} else if r.Method != "POST" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseLoginRequest(r)
	if err != nil {
		http.Error(w, "Bad input", http.StatusBadRequest)
		return
	}

	if server_data.password != "" &&
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(server_data.password)) != 1 {
		logger.Screen(fmt.Sprintf("Rejected login for %s", req.Username), color.RGB(250, 150, 150))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := server_data.CreateToken(req.Username)
	if err != nil {
		http.Error(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{
		Token: token,
	})
}

func (server_data *server_data) handleTurn(w http.ResponseWriter, r *http.Request) {
	enableCors(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	} else if r.Method != "POST" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := server_data.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	req, err := parseTurnRequest(r)
	if err != nil {
		http.Error(w, "Bad input", http.StatusBadRequest)
		return
	}

	s := server_data.sessions.Get(c.Session)
	logger.Debug.Printf("turn for %s in session %s", c.Username, s.ID())

	answer, err := server_data.controller.HandleTurn(r.Context(), s, req.Prompt)
	failed := err != nil
	if failed {
		if errors.Is(err, context.Canceled) {
			logger.Debug.Printf("client for %s went away mid turn", c.Username)
		}
		answer = chat.NeutralMessage
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(TurnResponse{
		Answer: answer,
		Failed: failed,
	})
}

func (server_data *server_data) handleReset(w http.ResponseWriter, r *http.Request) {
	enableCors(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	} else if r.Method != "POST" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := server_data.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	server_data.sessions.Get(c.Session).Reset()
	logger.Screen(fmt.Sprintf("Session reset for %s", c.Username), color.RGB(150, 150, 150))
	w.WriteHeader(http.StatusNoContent)
}

func (server_data *server_data) handleLogout(w http.ResponseWriter, r *http.Request) {
	enableCors(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	} else if r.Method != "POST" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := server_data.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	server_data.sessions.Delete(c.Session)
	logger.Screen(fmt.Sprintf("Logged out %s", c.Username), color.RGB(150, 150, 150))
	w.WriteHeader(http.StatusNoContent)
}

func evictIdleSessions(sessions *session.Store, maxIdle time.Duration, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if removed := sessions.Prune(maxIdle); removed > 0 {
			logger.Debug.Printf("evicted %d idle sessions", removed)
		}
	}
}

func (server_data *server_data) handleTranscript(w http.ResponseWriter, r *http.Request) {
	enableCors(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	} else if r.Method != "GET" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := server_data.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	turns := server_data.sessions.Get(c.Session).Turns()
	if turns == nil {
		turns = []session.Turn{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(TranscriptResponse{
		Turns: turns,
	})
}

func enableCors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
}

func (server_data *server_data) handleStatus(w http.ResponseWriter, r *http.Request) {
	enableCors(w)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (server_data *server_data) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, "expert: %d active sessions\n", server_data.sessions.Len())
}
