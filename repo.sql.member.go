package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

type memberRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	CardID       sql.NullInt64  `db:"card_id"`
	CardNumber   sql.NullString `db:"card_number"`
	CardMemberID sql.NullInt64  `db:"card_member_id"`
}

func (r memberRow) toMember() Member {
	return Member{
		ID:   r.ID,
		Name: r.Name,
		LibraryCard: LibraryCard{
			ID:         r.CardID.Int64,
			CardNumber: r.CardNumber.String,
			MemberID:   r.CardMemberID.Int64,
		},
	}
}

type sqlMemberStorage struct {
	*sqlStore
}

// NewSQLMemberStorage provides an instance of relational database based member storage.
func NewSQLMemberStorage(store *sqlStore) MemberStorage {
	return &sqlMemberStorage{sqlStore: store}
}

func (s *sqlMemberStorage) membersDataset() *goqu.SelectDataset {
	return s.dialect.From(goqu.T(tableMembers).As("m")).
		LeftJoin(goqu.T(tableLibraryCards).As("c"), goqu.On(goqu.I("c.member_id").Eq(goqu.I("m.id")))).
		Select(
			goqu.I("m.id").As("id"),
			goqu.I("m.name").As("name"),
			goqu.I("c.id").As("card_id"),
			goqu.I("c.card_number").As("card_number"),
			goqu.I("c.member_id").As("card_member_id"),
		)
}

// Create inserts a member and its library card in one transaction.
func (s *sqlMemberStorage) Create(ctx context.Context, name, cardNumber string) (Member, error) {
	var created Member
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		memberID, err := s.insertID(ctx, tx, s.dialect.Insert(tableMembers).Rows(goqu.Record{
			"name": name,
		}))
		if err != nil {
			return err
		}
		cardID, err := s.insertID(ctx, tx, s.dialect.Insert(tableLibraryCards).Rows(goqu.Record{
			"card_number": cardNumber,
			"member_id":   memberID,
		}))
		if err != nil {
			return err
		}
		created = Member{
			ID:   memberID,
			Name: name,
			LibraryCard: LibraryCard{
				ID:         cardID,
				CardNumber: cardNumber,
				MemberID:   memberID,
			},
		}
		return nil
	})
	return created, persistenceErr("create member", err)
}

// List retrieves the page of members ordered by id.
func (s *sqlMemberStorage) List(ctx context.Context, query MemberQuery) ([]Member, error) {
	query = query.Normalize()
	ds := s.membersDataset()
	if query.Name != "" {
		ds = ds.Where(s.containsFold("m.name", query.Name))
	}

	sqlQuery, args, err := ds.
		Order(goqu.I("m.id").Asc()).
		Limit(uint(query.PageSize)).
		Offset(uint(query.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, persistenceErr("list members", err)
	}

	var rows []memberRow
	if err = sqlx.SelectContext(ctx, s.db, &rows, sqlQuery, args...); err != nil {
		return nil, persistenceErr("list members", err)
	}
	members := make([]Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toMember())
	}
	return members, nil
}

// GetOne retrieves a member with its library card.
func (s *sqlMemberStorage) GetOne(ctx context.Context, id int64) (Member, error) {
	member, err := s.getMember(ctx, s.db, id)
	return member, persistenceErr("get member", err)
}

// Update sets the member name and its library card number.
func (s *sqlMemberStorage) Update(ctx context.Context, id int64, name, cardNumber string) (Member, error) {
	var updated Member
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.getMember(ctx, tx, id); err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, s.dialect.Update(tableMembers).
			Set(goqu.Record{"name": name}).
			Where(goqu.C("id").Eq(id)).Prepared(true)); err != nil {
			return err
		}

		n, err := s.exec(ctx, tx, s.dialect.Update(tableLibraryCards).
			Set(goqu.Record{"card_number": cardNumber}).
			Where(goqu.C("member_id").Eq(id)).Prepared(true))
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLibraryCardNotFound
		}

		updated, err = s.getMember(ctx, tx, id)
		return err
	})
	return updated, persistenceErr("update member", err)
}

// Delete removes the member and its library card. It returns the deleted member.
func (s *sqlMemberStorage) Delete(ctx context.Context, id int64) (Member, error) {
	var deleted Member
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = s.getMember(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err = s.exec(ctx, tx, s.dialect.Delete(tableLibraryCards).
			Where(goqu.C("member_id").Eq(id)).Prepared(true)); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, s.dialect.Delete(tableMembers).
			Where(goqu.C("id").Eq(id)).Prepared(true))
		return err
	})
	return deleted, persistenceErr("delete member", err)
}

func (s *sqlMemberStorage) getMember(ctx context.Context, q sqlx.ExtContext, id int64) (Member, error) {
	query, args, err := s.membersDataset().Where(goqu.I("m.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return Member{}, err
	}
	var row memberRow
	if err = sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrMemberNotFound
		}
		return Member{}, err
	}
	return row.toMember(), nil
}
