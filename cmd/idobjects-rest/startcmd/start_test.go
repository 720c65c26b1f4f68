/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/log"
	spi "github.com/hyperledger/aries-framework-go/spi/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type mockServer struct {
	host    string
	handler http.Handler
	err     error
}

func (s *mockServer) ListenAndServe(host string, handler http.Handler, _, _ string) error {
	s.host = host
	s.handler = handler

	return s.err
}

func (s *mockServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	require.NotNil(t, s.handler, "server was not started")

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	return rr
}

func execute(t *testing.T, server server, args ...string) error {
	t.Helper()

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs(args)

	return startCmd.Execute()
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start the DID registry", startCmd.Short)
	require.Equal(t, "Start the ID objects DID registry and data object REST API", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, hostFlagName, hostFlagShorthand, hostFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, webhookFlagName, webhookFlagShorthand, webhookFlagUsage, "[]")
	checkFlagPropertiesCorrect(t, startCmd, namespaceFlagName, namespaceFlagShorthand, namespaceFlagUsage, "")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	t.Helper()

	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())
	require.Nil(t, flag.Annotations)
}

func TestStartCmdValidArgs(t *testing.T) {
	srv := &mockServer{}

	err := execute(t, srv, "--"+hostFlagName, "localhost:8080", "--"+databaseTypeFlagName, databaseTypeMemOption,
		"--"+webhookFlagName, "http://localhost:9090/hook", "--"+namespaceFlagName, "test")
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", srv.host)

	rr := srv.do(t, http.MethodPost, "/idobjects/did/create", `{}`, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		DID        string `json:"did"`
		PrivateKey string `json:"private_key"`
	}

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Contains(t, res.DID, "did:idobjects:test:")
	require.NotEmpty(t, res.PrivateKey)

	rr = srv.do(t, http.MethodGet, "/idobjects/did/list", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), res.DID)

	rr = srv.do(t, http.MethodPost, "/idobjects/dataobject/list", `{}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"results":[]}`, rr.Body.String())
}

func TestStartCmdValidArgsEnvVar(t *testing.T) {
	t.Setenv(hostEnvKey, "localhost:8081")
	t.Setenv(databaseTypeEnvKey, databaseTypeLevelDBOption)
	t.Setenv(databaseURLEnvKey, t.TempDir())
	t.Setenv(discloseParentKeyEnvKey, "true")
	t.Setenv(logLevelEnvKey, "DEBUG")

	defer log.SetLevel("", spi.INFO)

	srv := &mockServer{}

	require.NoError(t, execute(t, srv))
	require.Equal(t, "localhost:8081", srv.host)
	require.Equal(t, spi.DEBUG, log.GetLevel(""))

	rr := srv.do(t, http.MethodPost, "/idobjects/did/create-key", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "did:key:z")
}

func TestStartCmdWithAuthorization(t *testing.T) {
	srv := &mockServer{}

	err := execute(t, srv, "--"+hostFlagName, "localhost:8080", "--"+databaseTypeFlagName, databaseTypeMemOption,
		"--"+tokenFlagName, "secret")
	require.NoError(t, err)

	rr := srv.do(t, http.MethodGet, "/idobjects/did/list", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = srv.do(t, http.MethodGet, "/idobjects/did/list", "", "other")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = srv.do(t, http.MethodGet, "/idobjects/did/list", "", "secret")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestStartCmdWithKeyLock(t *testing.T) {
	for _, lockType := range []string{"", keyLockPBKDF2Option, keyLockScryptOption} {
		srv := &mockServer{}

		args := []string{
			"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
			"--" + keyLockPassphraseFlagName, "passphrase", "--" + keyLockSaltFlagName, "salt",
		}

		if lockType != "" {
			args = append(args, "--"+keyLockTypeFlagName, lockType)
		}

		require.NoError(t, execute(t, srv, args...))

		rr := srv.do(t, http.MethodPost, "/idobjects/did/create", `{}`, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var res map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		require.NotEmpty(t, res["encrypted_private_key"], lockType)
		require.NotContains(t, res, "private_key")
	}

	t.Run("unsupported lock type", func(t *testing.T) {
		err := execute(t, &mockServer{}, "--"+hostFlagName, "localhost:8080",
			"--"+databaseTypeFlagName, databaseTypeMemOption,
			"--"+keyLockPassphraseFlagName, "passphrase", "--"+keyLockSaltFlagName, "salt",
			"--"+keyLockTypeFlagName, "argon2")
		require.Error(t, err)
		require.Contains(t, err.Error(), "key lock type [argon2] not supported")
	})

	t.Run("passphrase without salt", func(t *testing.T) {
		for _, lockType := range []string{keyLockPBKDF2Option, keyLockScryptOption} {
			srv := &mockServer{}

			err := execute(t, srv, "--"+hostFlagName, "localhost:8080",
				"--"+databaseTypeFlagName, databaseTypeMemOption,
				"--"+keyLockPassphraseFlagName, "passphrase", "--"+keyLockTypeFlagName, lockType)
			require.ErrorIs(t, err, errMissingKeyLockSalt)
			require.EqualError(t, err, "key-lock-salt is required when key-lock-passphrase is set")
			require.Nil(t, srv.handler)
		}
	})

	t.Run("salt from environment", func(t *testing.T) {
		t.Setenv(keyLockSaltEnvKey, "salt")

		srv := &mockServer{}

		require.NoError(t, execute(t, srv, "--"+hostFlagName, "localhost:8080",
			"--"+databaseTypeFlagName, databaseTypeMemOption, "--"+keyLockPassphraseFlagName, "passphrase"))
		require.NotNil(t, srv.handler)
	})
}

func TestStartCmdErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "missing host",
			args: []string{"--" + databaseTypeFlagName, databaseTypeMemOption},
			err:  "Neither api-host (command line flag) nor IDOBJECTS_API_HOST (environment variable) have been set.",
		},
		{
			name: "blank host",
			args: []string{"--" + hostFlagName, "", "--" + databaseTypeFlagName, databaseTypeMemOption},
			err:  errMissingHost.Error(),
		},
		{
			name: "missing db type",
			args: []string{"--" + hostFlagName, "localhost:8080"},
			err:  "Neither database-type (command line flag) nor IDOBJECTS_DATABASE_TYPE",
		},
		{
			name: "invalid db type",
			args: []string{"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, "couchdb"},
			err:  "database type not set to a valid type",
		},
		{
			name: "leveldb without url",
			args: []string{"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeLevelDBOption},
			err:  "database url is required for leveldb",
		},
		{
			name: "invalid db timeout",
			args: []string{
				"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + databaseTimeoutFlagName, "soon",
			},
			err: "failed to parse db timeout soon",
		},
		{
			name: "invalid log level",
			args: []string{
				"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + logLevelFlagName, "loud",
			},
			err: "failed to parse log level 'loud'",
		},
		{
			name: "invalid disclose parent key value",
			args: []string{
				"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + discloseParentKeyFlagName, "maybe",
			},
			err: "invalid syntax",
		},
		{
			name: "invalid namespace",
			args: []string{
				"--" + hostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + namespaceFlagName, "a:b",
			},
			err: "failed to initialize framework",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := execute(t, &mockServer{}, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestStartCmdServerError(t *testing.T) {
	srv := &mockServer{err: errors.New("address in use")}

	err := execute(t, srv, "--"+hostFlagName, "localhost:8080", "--"+databaseTypeFlagName, databaseTypeMemOption)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to start idobjects rest on port [localhost:8080], cause:  address in use")
}
