// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	runID text not null,
	emitter blob(20),
	name text,
	time integer,
	account blob(20),
	party blob(20),
	amount text,
	extra text
);

CREATE INDEX if not exists eventRunIndex on event(runID);
CREATE INDEX if not exists eventEmitterIndex on event(emitter);
CREATE INDEX if not exists eventAccountIndex on event(account);
CREATE INDEX if not exists eventNameIndex on event(name);
`
