package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	ColumnUserID    = "user_id"
	ColumnAge       = "age"
	ColumnGender    = "gender"
	ColumnLocation  = "location"
	ColumnInterests = "interests"
)

var requiredColumns = []string{ColumnUserID, ColumnAge, ColumnGender, ColumnLocation, ColumnInterests}

type Users struct {
	Items []*User
}

type User struct {
	ID        int    `mapstructure:"user_id"`
	Age       int    `mapstructure:"age"`
	Gender    string `mapstructure:"gender"`
	Location  string `mapstructure:"location"`
	Interests string `mapstructure:"interests"`
}

// Load reads the user table from a CSV file with a header row.
func Load(path string) (*Users, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	users, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("reading users from %q: %w", path, err)
	}

	return users, nil
}

// Read decodes users from CSV. Column order is free and unknown columns are ignored.
func Read(r io.Reader) (*Users, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty user table")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	users := &Users{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			}
		}

		user, err := decodeUser(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		users.Items = append(users.Items, user)
	}

	return users, nil
}

func decodeUser(row map[string]string) (*User, error) {
	var user User

	cfg := &mapstructure.DecoderConfig{
		Result:           &user,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(row); err != nil {
		return nil, err
	}

	return &user, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, column := range header {
		present[column] = struct{}{}
	}

	var missing []string
	for _, column := range requiredColumns {
		if _, ok := present[column]; !ok {
			missing = append(missing, column)
		}
	}

	return missing
}

func (u *Users) Len() int {
	return len(u.Items)
}

func (u *Users) FindByID(id int) *User {
	for _, user := range u.Items {
		if user.ID == id {
			return user
		}
	}

	return nil
}

// Labels returns the picker labels in table order.
func (u *Users) Labels() []string {
	labels := make([]string, 0, len(u.Items))
	for _, user := range u.Items {
		labels = append(labels, user.Label())
	}

	return labels
}

// Features returns the combined feature text of every user in table order.
func (u *Users) Features() []string {
	texts := make([]string, 0, len(u.Items))
	for _, user := range u.Items {
		texts = append(texts, user.Features())
	}

	return texts
}

func (u *Users) Ages() []float64 {
	ages := make([]float64, 0, len(u.Items))
	for _, user := range u.Items {
		ages = append(ages, float64(user.Age))
	}

	return ages
}

// Features joins the profile fields into the text the vectorizer consumes.
func (u *User) Features() string {
	return u.Interests + " " + u.Gender + " " + u.Location + " " + strconv.Itoa(u.Age)
}

func (u *User) Label() string {
	return fmt.Sprintf("ID %d: %s, %d, %s", u.ID, u.Gender, u.Age, u.Location)
}

// ParseLabelID extracts the user id from a label produced by User.Label.
func ParseLabelID(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed user label %q", label)
	}

	id, err := strconv.Atoi(strings.ReplaceAll(fields[1], ":", ""))
	if err != nil {
		return 0, fmt.Errorf("malformed user id in label %q: %w", label, err)
	}

	return id, nil
}
