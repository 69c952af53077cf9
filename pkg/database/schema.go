package database

const schema = `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        username TEXT UNIQUE NOT NULL,
        image_url TEXT NOT NULL DEFAULT '',
        dark_mode BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMP NOT NULL
    );

    CREATE TABLE IF NOT EXISTS friendships (
        user_low TEXT NOT NULL,
        user_high TEXT NOT NULL,
        requester_id TEXT NOT NULL,
        status TEXT NOT NULL,
        requested_at TIMESTAMP NOT NULL,
        responded_at TIMESTAMP,
        PRIMARY KEY (user_low, user_high),
        CHECK (user_low < user_high),
        FOREIGN KEY (user_low) REFERENCES users(id) ON DELETE CASCADE,
        FOREIGN KEY (user_high) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS books (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        isbn TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        authors TEXT NOT NULL DEFAULT '[]',
        published_date TEXT NOT NULL DEFAULT '',
        thumbnail TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT '',
        page_count INTEGER NOT NULL DEFAULT 0,
        ebook_page_count INTEGER,
        audio_length INTEGER,
        read_status TEXT NOT NULL DEFAULT 'not read',
        read_format TEXT NOT NULL DEFAULT 'physical',
        current_page INTEGER,
        date_format TEXT,
        read_year INTEGER,
        start_date TEXT,
        end_date TEXT,
        created_at TIMESTAMP NOT NULL,
        UNIQUE (user_id, isbn),
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS book_clubs (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        book_id TEXT NOT NULL,
        admin_id TEXT NOT NULL,
        start_date TEXT NOT NULL,
        end_date TEXT,
        created_at TIMESTAMP NOT NULL,
        FOREIGN KEY (book_id) REFERENCES books(id),
        FOREIGN KEY (admin_id) REFERENCES users(id)
    );

    CREATE TABLE IF NOT EXISTS book_club_members (
        club_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        joined_at TIMESTAMP NOT NULL,
        PRIMARY KEY (club_id, user_id),
        FOREIGN KEY (club_id) REFERENCES book_clubs(id) ON DELETE CASCADE,
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS book_club_messages (
        id TEXT PRIMARY KEY,
        club_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        user_id TEXT NOT NULL,
        message TEXT NOT NULL,
        posted_at TIMESTAMP NOT NULL,
        UNIQUE (club_id, seq),
        FOREIGN KEY (club_id) REFERENCES book_clubs(id) ON DELETE CASCADE,
        FOREIGN KEY (user_id) REFERENCES users(id)
    );

    CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username));
    CREATE INDEX IF NOT EXISTS idx_friendships_high ON friendships(user_high);
    CREATE INDEX IF NOT EXISTS idx_books_user ON books(user_id);
    CREATE INDEX IF NOT EXISTS idx_books_user_dates ON books(user_id, date_format, read_year, start_date, end_date);
    CREATE INDEX IF NOT EXISTS idx_book_clubs_name ON book_clubs(name);
    CREATE INDEX IF NOT EXISTS idx_members_user ON book_club_members(user_id, joined_at);
    `
