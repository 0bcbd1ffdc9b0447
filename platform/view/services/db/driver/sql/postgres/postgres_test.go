/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/gomega"
)

func newMockStore(t *testing.T) (driver.Persistence, sqlmock.Sqlmock) {
	RegisterTestingT(t)

	db, mockDB, err := sqlmock.New()
	Expect(err).ToNot(HaveOccurred())

	mockDB.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS alice_kvs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	p, err := NewPersistence(db, tableName("Alice"))
	Expect(err).ToNot(HaveOccurred())
	return p, mockDB
}

func TestGetState(t *testing.T) {
	p, mockDB := newMockStore(t)

	mockDB.
		ExpectQuery(regexp.QuoteMeta("SELECT val FROM alice_kvs WHERE ns = $1 AND pkey = $2")).
		WithArgs("iou", []byte("key1")).
		WillReturnRows(mockDB.NewRows([]string{"val"}).AddRow([]byte("value1")))
	mockDB.
		ExpectQuery(regexp.QuoteMeta("SELECT val FROM alice_kvs WHERE ns = $1 AND pkey = $2")).
		WithArgs("iou", []byte("missing")).
		WillReturnRows(mockDB.NewRows([]string{"val"}))

	v, err := p.GetState("iou", "key1")
	Expect(err).ToNot(HaveOccurred())
	Expect(v).To(Equal([]byte("value1")))

	v, err = p.GetState("iou", "missing")
	Expect(err).ToNot(HaveOccurred())
	Expect(v).To(BeNil())

	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestSetAndDeleteInTransaction(t *testing.T) {
	p, mockDB := newMockStore(t)

	mockDB.ExpectBegin()
	mockDB.
		ExpectExec(regexp.QuoteMeta("INSERT INTO alice_kvs (ns, pkey, val) VALUES ($1, $2, $3) ON CONFLICT (ns, pkey) DO UPDATE SET val = excluded.val")).
		WithArgs("iou", []byte("key1"), []byte("value1")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.
		ExpectExec(regexp.QuoteMeta("DELETE FROM alice_kvs WHERE ns = $1 AND pkey = $2")).
		WithArgs("iou", []byte("key2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	Expect(p.BeginUpdate()).To(Succeed())
	Expect(p.SetState("iou", "key1", []byte("value1"))).To(Succeed())
	Expect(p.DeleteState("iou", "key2")).To(Succeed())
	Expect(p.Commit()).To(Succeed())

	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestDiscard(t *testing.T) {
	p, mockDB := newMockStore(t)

	mockDB.ExpectBegin()
	mockDB.
		ExpectExec(regexp.QuoteMeta("INSERT INTO alice_kvs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectRollback()

	Expect(p.BeginUpdate()).To(Succeed())
	Expect(p.SetState("iou", "key1", []byte("value1"))).To(Succeed())
	Expect(p.Discard()).To(Succeed())

	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestUniqueViolationIsMapped(t *testing.T) {
	p, mockDB := newMockStore(t)

	mockDB.ExpectBegin()
	mockDB.
		ExpectExec(regexp.QuoteMeta("INSERT INTO alice_kvs")).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mockDB.ExpectRollback()

	Expect(p.BeginUpdate()).To(Succeed())
	err := p.SetState("iou", "key1", []byte("value1"))
	Expect(err).To(HaveOccurred())
	Expect(errors.Is(err, driver.UniqueKeyViolation)).To(BeTrue())
	Expect(p.Discard()).To(Succeed())

	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestRangeScan(t *testing.T) {
	p, mockDB := newMockStore(t)

	mockDB.
		ExpectQuery(regexp.QuoteMeta("SELECT pkey, val FROM alice_kvs WHERE ns = $1 AND pkey >= $2 AND pkey < $3 ORDER BY pkey")).
		WithArgs("iou", []byte("a"), []byte("c")).
		WillReturnRows(mockDB.NewRows([]string{"pkey", "val"}).
			AddRow([]byte("a"), []byte("1")).
			AddRow([]byte("b"), []byte("2")))
	mockDB.
		ExpectQuery(regexp.QuoteMeta("SELECT pkey, val FROM alice_kvs WHERE ns = $1 ORDER BY pkey")).
		WithArgs("iou").
		WillReturnRows(mockDB.NewRows([]string{"pkey", "val"}))

	it, err := p.GetStateRangeScanIterator("iou", "a", "c")
	Expect(err).ToNot(HaveOccurred())
	var keys []string
	for {
		r, err := it.Next()
		Expect(err).ToNot(HaveOccurred())
		if r == nil {
			break
		}
		keys = append(keys, r.Key)
	}
	it.Close()
	Expect(keys).To(Equal([]string{"a", "b"}))

	it, err = p.GetStateRangeScanIterator("iou", "", "")
	Expect(err).ToNot(HaveOccurred())
	r, err := it.Next()
	Expect(err).ToNot(HaveOccurred())
	Expect(r).To(BeNil())
	it.Close()

	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestInvalidTableName(t *testing.T) {
	RegisterTestingT(t)
	db, _, err := sqlmock.New()
	Expect(err).ToNot(HaveOccurred())
	_, err = NewPersistence(db, "drop table;")
	Expect(err).To(HaveOccurred())
}
