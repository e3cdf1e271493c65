package recordstore

import (
	"fmt"
	"strings"
)

// Помощники для построения формул-фильтров хранилища. Значения
// экранируются от одинарных кавычек, чтобы имя клиента вида O'Brien
// не ломало формулу.

func escape(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}

// Eq равенство поля значению: {Field} = 'value'.
func Eq(field, value string) string {
	return fmt.Sprintf("{%s} = '%s'", field, escape(value))
}

// LinkContains проверяет, что link-поле содержит ID записи:
// SEARCH('id', ARRAYJOIN({Field})).
func LinkContains(field, id string) string {
	return fmt.Sprintf("SEARCH('%s', ARRAYJOIN({%s}))", escape(id), field)
}

// GtNum числовое сравнение: VALUE({Field}) > n. Хранилище может отдавать
// числовые поля строками, VALUE приводит их к числу на своей стороне.
func GtNum(field string, n int) string {
	return fmt.Sprintf("VALUE({%s}) > %d", field, n)
}

// And конъюнкция условий.
func And(conds ...string) string {
	return "AND(" + strings.Join(conds, ", ") + ")"
}

// Or дизъюнкция условий.
func Or(conds ...string) string {
	return "OR(" + strings.Join(conds, ", ") + ")"
}
