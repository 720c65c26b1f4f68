/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/idobjects/idobjects-framework-go/pkg/controller"
	"github.com/idobjects/idobjects-framework-go/pkg/framework/context"
	"github.com/idobjects/idobjects-framework-go/pkg/framework/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock/local/masterlock/pbkdf2"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock/local/masterlock/scrypt"
)

const (
	// api host flag.
	hostFlagName      = "api-host"
	hostEnvKey        = "IDOBJECTS_API_HOST"
	hostFlagShorthand = "a"
	hostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostEnvKey

	// api token flag.
	tokenFlagName      = "api-token"
	tokenEnvKey        = "IDOBJECTS_API_TOKEN" // nolint:gosec
	tokenFlagShorthand = "t"
	tokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + tokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "IDOBJECTS_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database to use for the DID registry and the data object store. " +
		"Supported options: mem, leveldb. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databaseURLFlagName      = "database-url"
	databaseURLEnvKey        = "IDOBJECTS_DATABASE_URL"
	databaseURLFlagShorthand = "v"
	databaseURLFlagUsage     = "The location of the database. For leveldb this is a directory. Not needed if using mem." +
		" Alternatively, this can be set with the following environment variable: " + databaseURLEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "IDOBJECTS_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// webhook url flag.
	webhookFlagName      = "webhook-url"
	webhookEnvKey        = "IDOBJECTS_WEBHOOK_URL"
	webhookFlagShorthand = "w"
	webhookFlagUsage     = "URL to send DID and data object events to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + webhookEnvKey

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "IDOBJECTS_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	// did namespace flag.
	namespaceFlagName      = "namespace"
	namespaceEnvKey        = "IDOBJECTS_NAMESPACE"
	namespaceFlagShorthand = "n"
	namespaceFlagUsage     = "Namespace of the did:idobjects DIDs issued by this registry. Defaults to main." +
		" Alternatively, this can be set with the following environment variable: " + namespaceEnvKey

	// parent key reference flag.
	discloseParentKeyFlagName  = "disclose-parent-key"
	discloseParentKeyEnvKey    = "IDOBJECTS_DISCLOSE_PARENT_KEY"
	discloseParentKeyFlagUsage = "Point ownership proofs at the parent's key instead of the child's own" +
		" parent-ownership method. Possible values [true] [false]. Defaults to false." +
		" Alternatively, this can be set with the following environment variable: " + discloseParentKeyEnvKey

	// key lock flags.
	keyLockPassphraseFlagName  = "key-lock-passphrase"
	keyLockPassphraseEnvKey    = "IDOBJECTS_KEY_LOCK_PASSPHRASE" // nolint:gosec
	keyLockPassphraseFlagUsage = "Passphrase of the lock protecting private keys returned by the API (optional)." +
		" Without it private keys are returned base58 encoded." +
		" Alternatively, this can be set with the following environment variable: " + keyLockPassphraseEnvKey

	keyLockSaltFlagName  = "key-lock-salt"
	keyLockSaltEnvKey    = "IDOBJECTS_KEY_LOCK_SALT"
	keyLockSaltFlagUsage = "Salt of the key lock. Required when a key lock passphrase is set." +
		" Alternatively, this can be set with the following environment variable: " + keyLockSaltEnvKey

	keyLockTypeFlagName  = "key-lock-type"
	keyLockTypeEnvKey    = "IDOBJECTS_KEY_LOCK_TYPE"
	keyLockTypeFlagUsage = "Key derivation of the key lock. Possible values [pbkdf2] [scrypt]. Defaults to pbkdf2." +
		" Alternatively, this can be set with the following environment variable: " + keyLockTypeEnvKey

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"

	keyLockPBKDF2Option = "pbkdf2"
	keyLockScryptOption = "scrypt"

	pbkdf2Iterations = 100000
)

var (
	errMissingHost        = errors.New("host not provided")
	errMissingKeyLockSalt = errors.New(keyLockSaltFlagName + " is required when " + keyLockPassphraseFlagName + " is set")
	logger                = log.New("idobjects/rest")
)

type serverParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	webhookURLs             []string
	namespace               string
	discloseParentKey       bool
	keyLock                 *keyLockParam
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	url     string
	timeout uint64
}

type keyLockParam struct {
	lockType   string
	passphrase string
	salt       string
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(url string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) { // nolint:unparam
		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command { //nolint: funlen
	return &cobra.Command{
		Use:   "start",
		Short: "Start the DID registry",
		Long:  `Start the ID objects DID registry and data object REST API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			err = setLogLevel(logLevel)
			if err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, hostFlagName, hostEnvKey, false)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, tokenFlagName, tokenEnvKey, true)
			if err != nil {
				return err
			}

			dbParam, err := getDBParam(cmd)
			if err != nil {
				return err
			}

			webhookURLs, err := getUserSetVars(cmd, webhookFlagName, webhookEnvKey, true)
			if err != nil {
				return err
			}

			namespace, err := getUserSetVar(cmd, namespaceFlagName, namespaceEnvKey, true)
			if err != nil {
				return err
			}

			discloseParentKey, err := getBoolValue(cmd, discloseParentKeyFlagName, discloseParentKeyEnvKey)
			if err != nil {
				return err
			}

			keyLock, err := getKeyLockParam(cmd)
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &serverParameters{
				server:            server,
				host:              host,
				token:             token,
				tlsCertFile:       tlsCertFile,
				tlsKeyFile:        tlsKeyFile,
				webhookURLs:       webhookURLs,
				namespace:         namespace,
				discloseParentKey: discloseParentKey,
				keyLock:           keyLock,
				dbParam:           dbParam,
			}

			return startServer(parameters)
		},
	}
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.url, err = getUserSetVar(cmd, databaseURLFlagName, databaseURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getKeyLockParam(cmd *cobra.Command) (*keyLockParam, error) {
	passphrase, err := getUserSetVar(cmd, keyLockPassphraseFlagName, keyLockPassphraseEnvKey, true)
	if err != nil {
		return nil, err
	}

	if passphrase == "" {
		return nil, nil
	}

	salt, err := getUserSetVar(cmd, keyLockSaltFlagName, keyLockSaltEnvKey, true)
	if err != nil {
		return nil, err
	}

	if salt == "" {
		return nil, errMissingKeyLockSalt
	}

	lockType, err := getUserSetVar(cmd, keyLockTypeFlagName, keyLockTypeEnvKey, true)
	if err != nil {
		return nil, err
	}

	if lockType == "" {
		lockType = keyLockPBKDF2Option
	}

	return &keyLockParam{lockType: lockType, passphrase: passphrase, salt: salt}, nil
}

func getBoolValue(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return false, err
	}

	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

func createFlags(startCmd *cobra.Command) {
	// host flag
	startCmd.Flags().StringP(hostFlagName, hostFlagShorthand, "", hostFlagUsage)

	// token flag
	startCmd.Flags().StringP(tokenFlagName, tokenFlagShorthand, "", tokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)

	// db url
	startCmd.Flags().StringP(databaseURLFlagName, databaseURLFlagShorthand, "", databaseURLFlagUsage)

	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)

	// webhook url flag
	startCmd.Flags().StringSliceP(webhookFlagName, webhookFlagShorthand, []string{}, webhookFlagUsage)

	// log level
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)

	// namespace
	startCmd.Flags().StringP(namespaceFlagName, namespaceFlagShorthand, "", namespaceFlagUsage)

	// parent key reference
	startCmd.Flags().StringP(discloseParentKeyFlagName, "", "", discloseParentKeyFlagUsage)

	// key lock
	startCmd.Flags().StringP(keyLockPassphraseFlagName, "", "", keyLockPassphraseFlagUsage)
	startCmd.Flags().StringP(keyLockSaltFlagName, "", "", keyLockSaltFlagUsage)
	startCmd.Flags().StringP(keyLockTypeFlagName, "", "", keyLockTypeFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startServer(parameters *serverParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createRouter(parameters)
	if err != nil {
		return err
	}

	logger.Infof("Starting idobjects rest on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start idobjects rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createRouter(parameters *serverParameters) (http.Handler, error) {
	ctx, err := createFramework(parameters)
	if err != nil {
		return nil, err
	}

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(ctx, controller.WithWebhookURLs(parameters.webhookURLs...))
	if err != nil {
		return nil, fmt.Errorf("failed to start idobjects rest on port [%s], failed to get rest service api :  %w",
			parameters.host, err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func createFramework(parameters *serverParameters) (*context.Provider, error) {
	storePro, err := createStoreProvider(parameters)
	if err != nil {
		return nil, err
	}

	opts := []idobjects.Option{idobjects.WithStoreProvider(storePro)}

	if parameters.namespace != "" {
		opts = append(opts, idobjects.WithNamespace(parameters.namespace))
	}

	if parameters.discloseParentKey {
		opts = append(opts, idobjects.WithDisclosedParentKeyReference())
	}

	if parameters.keyLock != nil {
		lock, lockErr := createKeyLock(parameters.keyLock)
		if lockErr != nil {
			return nil, fmt.Errorf("failed to start idobjects rest on port [%s], failed to create key lock : %w",
				parameters.host, lockErr)
		}

		opts = append(opts, idobjects.WithSecretLock(lock))
	}

	framework, err := idobjects.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start idobjects rest on port [%s], failed to initialize framework :  %w",
			parameters.host, err)
	}

	ctx, err := framework.Context()
	if err != nil {
		return nil, fmt.Errorf("failed to start idobjects rest on port [%s], failed to get framework context : %w",
			parameters.host, err)
	}

	return ctx, nil
}

func createKeyLock(p *keyLockParam) (secretlock.Service, error) {
	salt := []byte(p.salt)

	switch p.lockType {
	case keyLockPBKDF2Option:
		return pbkdf2.NewMasterLock(p.passphrase, sha256.New, pbkdf2Iterations, salt)
	case keyLockScryptOption:
		return scrypt.NewMasterLock(p.passphrase, salt, scrypt.DefaultParams())
	default:
		return nil, fmt.Errorf("key lock type [%s] not supported", p.lockType)
	}
}

func createStoreProvider(parameters *serverParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	if parameters.dbParam.dbType == databaseTypeLevelDBOption && parameters.dbParam.url == "" {
		return nil, errors.New("database url is required for leveldb")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(parameters.dbParam.url)

			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", parameters.dbParam.url, err)
	}

	return store, nil
}
