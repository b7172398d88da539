// Package jsondb is a storage backend that keeps users and their additional
// records in memory and dumps them to a JSON file on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

type UserRecord struct {
	Seq          int64
	ID           string
	Email        string
	Names        string
	LastNames    string
	Phone        string
	Address      string
	AdditionalID string
}

type AdditionalRecord struct {
	Seq    int64
	ID     string
	Art    string
	Music  string
	Cinema string
}

type CacheStruct struct {
	Users       map[string]UserRecord
	Additionals map[string]AdditionalRecord
	NextSeq     int64
}

// JSONDB is safe for concurrent use.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// NewCache returns an empty cache.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:       map[string]UserRecord{},
		Additionals: map[string]AdditionalRecord{},
		NextSeq:     1,
	}
}

func (r UserRecord) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Email:        r.Email,
		Names:        r.Names,
		LastNames:    r.LastNames,
		Phone:        r.Phone,
		Address:      r.Address,
		AdditionalID: r.AdditionalID,
	}
}

func (r AdditionalRecord) toModel() models.Additional {
	return models.Additional{
		ID:     r.ID,
		Art:    r.Art,
		Music:  r.Music,
		Cinema: r.Cinema,
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Additionals": {},
	"NextSeq": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err = file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cache); err != nil {
		return err
	}

	if cache.Users == nil {
		cache.Users = map[string]UserRecord{}
	}
	if cache.Additionals == nil {
		cache.Additionals = map[string]AdditionalRecord{}
	}
	if cache.NextSeq < 1 {
		cache.NextSeq = 1
	}

	return nil
}

// New loads fileName, creating it when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func (db *JSONDB) nextSeq() int64 {
	seq := db.Cache.NextSeq
	db.Cache.NextSeq++
	return seq
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close writes the cache to the backing file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) CreateAdditional(ctx context.Context, additional *models.Additional) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := uuid.New().String()
	db.Cache.Additionals[id] = AdditionalRecord{
		Seq:    db.nextSeq(),
		ID:     id,
		Art:    additional.Art,
		Music:  additional.Music,
		Cinema: additional.Cinema,
	}

	return id, nil
}

func (db *JSONDB) GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	record, found := db.Cache.Additionals[additionalID]
	if !found {
		return nil, false, nil
	}
	additional := record.toModel()

	return &additional, true, nil
}

func (db *JSONDB) ListAdditionals(ctx context.Context) ([]models.Additional, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	records := funk.Values(db.Cache.Additionals).([]AdditionalRecord)
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	result := make([]models.Additional, 0, len(records))
	for _, record := range records {
		result = append(result, record.toModel())
	}

	return result, nil
}

func (db *JSONDB) UpdateAdditional(ctx context.Context, additional *models.Additional) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	record, found := db.Cache.Additionals[additional.ID]
	if !found {
		return fmt.Errorf("additional record %q does not exist", additional.ID)
	}
	record.Art = additional.Art
	record.Music = additional.Music
	record.Cinema = additional.Cinema
	db.Cache.Additionals[additional.ID] = record

	return nil
}

func (db *JSONDB) DeleteAdditional(ctx context.Context, additionalID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Additionals, additionalID)

	return nil
}

func (db *JSONDB) GetNumberOfAdditionals(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Additionals)), nil
}

func (db *JSONDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := uuid.New().String()
	db.Cache.Users[id] = UserRecord{
		Seq:          db.nextSeq(),
		ID:           id,
		Email:        usr.Email,
		Names:        usr.Names,
		LastNames:    usr.LastNames,
		Phone:        usr.Phone,
		Address:      usr.Address,
		AdditionalID: usr.AdditionalID,
	}

	return id, nil
}

// FindUserByEmail returns the earliest registered user with that exact email.
func (db *JSONDB) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var match *UserRecord
	for _, record := range db.Cache.Users {
		if record.Email != email {
			continue
		}
		if match == nil || record.Seq < match.Seq {
			current := record
			match = &current
		}
	}
	if match == nil {
		return nil, false, nil
	}
	usr := match.toModel()

	return &usr, true, nil
}

func (db *JSONDB) ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	records := funk.Values(db.Cache.Users).([]UserRecord)
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	result := make([]models.UserWithAdditional, 0, len(records))
	for _, record := range records {
		item := models.UserWithAdditional{User: record.toModel()}
		if additionalRecord, found := db.Cache.Additionals[record.AdditionalID]; found {
			additional := additionalRecord.toModel()
			item.Additional = &additional
		}
		result = append(result, item)
	}

	return result, nil
}

func (db *JSONDB) UpdateUser(ctx context.Context, usr *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	record, found := db.Cache.Users[usr.ID]
	if !found {
		return fmt.Errorf("user %q does not exist", usr.ID)
	}
	record.Names = usr.Names
	record.LastNames = usr.LastNames
	record.Phone = usr.Phone
	record.Address = usr.Address
	db.Cache.Users[usr.ID] = record

	return nil
}

func (db *JSONDB) DeleteUser(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Users, userID)

	return nil
}

func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}
