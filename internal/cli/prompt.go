package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errEmptyCredentials = errors.New("username and password are required")

// promptCredentials asks for a username and password. The password is read
// without echo when in is a terminal.
func promptCredentials(in io.Reader, out io.Writer) (string, string, error) {
	r := bufio.NewReader(in)

	fmt.Fprint(out, "Username: ")
	identity, err := readLine(r)
	if err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}

	fmt.Fprint(out, "Password: ")
	var secret string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		secret = string(b)
	} else {
		if secret, err = readLine(r); err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
	}

	if identity == "" || secret == "" {
		return "", "", errEmptyCredentials
	}
	return identity, secret, nil
}

// readLine returns one trimmed line; a final line without newline is fine.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
